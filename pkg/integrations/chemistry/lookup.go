package chemistry

import (
	"context"
	"net/url"

	errs "github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/normalize"
)

// SmilesToInchikey converts a SMILES string to its InChIKey.
func (c *Client) SmilesToInchikey(ctx context.Context, smiles string) (string, error) {
	if err := errs.ValidateIdentifier("smiles", smiles); err != nil {
		return "", err
	}
	var resp struct {
		Inchikey string `json:"inchikey"`
	}
	err := c.Post(ctx, c.url("api/v1/substance_utils/smiles2inchikey", nil), map[string]string{"smiles": smiles}, &resp)
	if err != nil {
		return "", hardError("smiles to inchikey", err)
	}
	if resp.Inchikey == "" {
		return "", errs.New(errs.ErrCodeUpstream, "no inchikey returned for %q", smiles)
	}
	return resp.Inchikey, nil
}

// Reaction looks up a reaction by id, including its participants.
func (c *Client) Reaction(ctx context.Context, rxid string) (*normalize.ReactionRecord, error) {
	if err := errs.ValidateIdentifier("reaction id", rxid); err != nil {
		return nil, err
	}
	u := c.url("api/v1/knowledge_base/reactions/"+url.PathEscape(rxid), url.Values{"retrieve_components": {"true"}})
	var rec normalize.ReactionRecord
	if err := c.Get(ctx, u, &rec); err != nil {
		return nil, hardError("reaction lookup", err)
	}
	if rec.RxID == "" {
		return nil, errs.New(errs.ErrCodeNotFound, "No reaction found in response")
	}
	return &rec, nil
}

// Substance looks up a substance by InChIKey.
func (c *Client) Substance(ctx context.Context, inchikey string) (map[string]any, error) {
	if err := errs.ValidateIdentifier("inchikey", inchikey); err != nil {
		return nil, err
	}
	var rec map[string]any
	if err := c.Get(ctx, c.url("api/v1/knowledge_base/substances/"+url.PathEscape(inchikey), nil), &rec); err != nil {
		return nil, hardError("substance lookup", err)
	}
	if len(rec) == 0 {
		return nil, errs.New(errs.ErrCodeNotFound, "No substance found in response")
	}
	return rec, nil
}
