package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound means the registry has no company under the queried CNPJ.
type ErrNotFound string

func (e ErrNotFound) Error() string { return string(e) }

// Client queries the public company registry by CNPJ.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// Lookup fetches the registry record for a 14-digit CNPJ and returns the
// upstream JSON verbatim. A response without razao_social is treated as not
// found regardless of the upstream status code.
func (c *Client) Lookup(ctx context.Context, cnpj string) (json.RawMessage, error) {
	u := strings.TrimRight(c.BaseURL, "/") + "/" + cnpj
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound("cnpj not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry status %d", resp.StatusCode)
	}

	var probe struct {
		RazaoSocial string `json:"razao_social"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("registry returned invalid json: %w", err)
	}
	if probe.RazaoSocial == "" {
		return nil, ErrNotFound("cnpj not found")
	}
	return json.RawMessage(body), nil
}
