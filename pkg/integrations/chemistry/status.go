package chemistry

import (
	"context"
	"encoding/json"

	errs "github.com/matzehuels/synthroute/pkg/errors"
)

// Status is the liveness report of the service.
type Status struct {
	Status string         `json:"status,omitempty"`
	Error  bool           `json:"error,omitempty"`
	Detail string         `json:"detail,omitempty"`
	Fields map[string]any `json:"-"`
}

// OK reports whether the service answered successfully.
func (s Status) OK() bool { return !s.Error }

// Status checks the service. On failure the returned Status has Error set
// and the error describes the cause.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var raw map[string]any
	if err := c.Get(ctx, c.url("status", nil), &raw); err != nil {
		herr := hardError("status check", err)
		return Status{Error: true, Detail: errs.UserMessage(herr)}, herr
	}
	st := Status{Fields: raw}
	if s, ok := raw["status"].(string); ok {
		st.Status = s
	} else if data, err := json.Marshal(raw); err == nil {
		st.Status = string(data)
	}
	return st, nil
}
