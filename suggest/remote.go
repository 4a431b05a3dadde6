package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a remote suggestion backend exposing
// GET /api/components and POST /api/suggest.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Components fetches the backend's catalog.
func (c *Client) Components(ctx context.Context) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/components", nil)
	if err != nil {
		return nil, fmt.Errorf("components request: %w", err)
	}
	var catalog Catalog
	if err := c.do(req, &catalog); err != nil {
		return nil, fmt.Errorf("fetching components: %w", err)
	}
	return catalog, nil
}

// Suggest asks the backend for a component matching input.
func (c *Client) Suggest(ctx context.Context, input string) (Suggestion, error) {
	if err := CheckInput(input); err != nil {
		return Suggestion{}, err
	}
	body, err := json.Marshal(map[string]string{"input": input})
	if err != nil {
		return Suggestion{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/suggest", bytes.NewReader(body))
	if err != nil {
		return Suggestion{}, fmt.Errorf("suggest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var s Suggestion
	if err := c.do(req, &s); err != nil {
		return Suggestion{}, fmt.Errorf("remote suggest: %w", err)
	}
	if s.ComponentCode == "" {
		return Suggestion{}, fmt.Errorf("remote suggest: empty component code")
	}
	return s, nil
}

func (c *Client) do(req *http.Request, out any) error {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
