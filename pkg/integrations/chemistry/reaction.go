package chemistry

import (
	"context"
	"errors"
	"net/url"
	"regexp"

	"github.com/matzehuels/synthroute/pkg/cache"
)

// ErrEmptyDepiction is returned when the service answers without an image.
var ErrEmptyDepiction = errors.New("empty depiction")

var atomMapRE = regexp.MustCompile(`:[0-9]+\]`)

// HasAtomMapping reports whether rxsmiles carries atom-map numbers such as
// "[CH3:1]".
func HasAtomMapping(rxsmiles string) bool {
	return atomMapRE.MatchString(rxsmiles)
}

// Balance holds the balance indices of a reaction.
type Balance struct {
	PBI float64 `json:"pbi"`
	RBI float64 `json:"rbi"`
	TBI float64 `json:"tbi"`
}

// BalanceIndices computes the balance indices of an atom-mapped reaction.
func (c *Client) BalanceIndices(ctx context.Context, rxsmiles string) (Balance, error) {
	var b Balance
	key := c.keyer.HTTPKey("compute_all_bi", cache.Hash([]byte(rxsmiles)))
	err := c.Cached(ctx, key, false, &b, func() error {
		return c.Get(ctx, c.url("compute_all_bi", url.Values{"rxsmiles": {rxsmiles}}), &b)
	})
	return b, err
}

// NormalizeRoles asks the service to reassign reactant and reagent roles of
// an atom-mapped reaction. When enabled is false rxsmiles is returned
// unchanged without a request.
func (c *Client) NormalizeRoles(ctx context.Context, rxsmiles string, enabled bool) (string, error) {
	if !enabled {
		return rxsmiles, nil
	}
	var resp struct {
		Original string `json:"original_rxsmiles"`
		RxSmiles string `json:"rxsmiles"`
	}
	err := c.Retry(ctx, func() error {
		return c.Post(ctx, c.url("normalize_roles", nil), map[string]string{"rxsmiles": rxsmiles}, &resp)
	})
	if err != nil {
		return "", err
	}
	if resp.RxSmiles == "" {
		return rxsmiles, nil
	}
	return resp.RxSmiles, nil
}
