package chemistry

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/matzehuels/synthroute/pkg/buildinfo"
	"github.com/matzehuels/synthroute/pkg/cache"
	errs "github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/integrations"
)

// DefaultBaseURL is the service address used when none is configured.
const DefaultBaseURL = "http://0.0.0.0:5099"

// Config configures a [Client].
type Config struct {
	BaseURL   string
	RateLimit float64 // requests per second, 0 for unlimited
	Burst     int
	Retries   int // attempts per call, 1 disables retries
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// Client talks to the chemistry service. It is safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
	keyer   cache.Keyer
}

// NewClient creates a client caching in backend, which may be nil.
func NewClient(backend cache.Cache, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = cache.TTLDepiction
	}
	base := integrations.NewClient(backend, "chem:", cfg.CacheTTL, map[string]string{
		"User-Agent": buildinfo.UserAgent(),
	})
	base.SetRateLimit(cfg.RateLimit, cfg.Burst)
	base.SetRetry(max(cfg.Retries, 1), 500*time.Millisecond)
	base.SetTimeout(cfg.Timeout)
	return &Client{
		Client:  base,
		baseURL: cfg.BaseURL,
		keyer:   cache.NewDefaultKeyer(),
	}
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) url(path string, q url.Values) string {
	return integrations.WithQuery(integrations.JoinURL(c.baseURL, path), q)
}

// hardError maps a transport or status error of a lookup-style call to a
// coded error whose message is the service detail when there is one.
func hardError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := op + " failed"
	var up *errs.UpstreamError
	if errors.As(err, &up) && up.Detail != "" {
		msg = up.Detail
	}

	code := errs.ErrCodeUpstream
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = errs.ErrCodeTimeout
	case errors.Is(err, integrations.ErrNotFound):
		code = errs.ErrCodeNotFound
	case errors.Is(err, integrations.ErrRateLimited):
		code = errs.ErrCodeRateLimited
	case errors.Is(err, integrations.ErrNetwork) && up == nil:
		code = errs.ErrCodeNetwork
	}
	return errs.Wrap(code, err, "%s", msg)
}
