package client

import (
	"context"
	"fmt"
	"net/http"
)

// SchemaField declares one extraction field.
type SchemaField struct {
	// Description tells the model what the field means.
	Description string `json:"description"`
	// Multiplicity is "one" or "many".
	Multiplicity string `json:"multiplicity"`
}

// ExtractRequest is the payload for Extract. Exactly one of Text and Texts
// must be set.
type ExtractRequest struct {
	Text   string                 `json:"text,omitempty"`
	Texts  []string               `json:"texts,omitempty"`
	Schema map[string]SchemaField `json:"schema"`

	// Mode is "single-pass" or "agentic". Defaults to "agentic" server-side.
	Mode string `json:"mode,omitempty"`
	// Encoding is "conll" or "entities". Defaults to "conll" server-side.
	Encoding string `json:"encoding,omitempty"`
}

// TaggedToken is one token with its BIOSES tag.
type TaggedToken struct {
	Token string `json:"token"`
	Tag   string `json:"tag"`
}

// Entity is one extracted entity span.
type Entity struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DocumentResult holds one document's extraction output. Tokens is set for
// the "conll" encoding, Entities for "entities".
type DocumentResult struct {
	Tokens   []TaggedToken `json:"tokens,omitempty"`
	Entities []Entity      `json:"entities,omitempty"`
}

// ExtractResponse is the Extract result.
type ExtractResponse struct {
	RequestID string           `json:"request_id"`
	Mode      string           `json:"mode"`
	Encoding  string           `json:"encoding"`
	Results   []DocumentResult `json:"results"`
}

// Extract runs entity extraction on the server and returns the per-document
// results.
func (c *Client) Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("entitag: request must not be nil")
	}
	if len(req.Schema) == 0 {
		return nil, fmt.Errorf("entitag: schema must declare at least one field")
	}

	var resp ExtractResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/extract", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// healthResponse is the /readyz payload.
type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Ready reports whether the server and its dependencies are ready to serve.
func (c *Client) Ready(ctx context.Context) error {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("entitag: server degraded: %v", resp.Components)
	}
	return nil
}
