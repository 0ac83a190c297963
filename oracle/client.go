package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dar7an/zk-cricket-trader/field"
)

// maxPayloadSize bounds response bodies read from the oracle.
const maxPayloadSize = 1 << 20

// Client fetches signed payloads from an oracle feed. It does not verify
// signatures; the contract does that on ingestion.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the feed at baseURL. A nil httpClient
// selects one with a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Fixture fetches the current fixture.
func (c *Client) Fixture(ctx context.Context) (FixturePayload, error) {
	var p FixturePayload
	err := c.get(ctx, "/fixture", &p)
	return p, err
}

// Status fetches the latest status for fixture id.
func (c *Client) Status(ctx context.Context, id field.Scalar) (StatusPayload, error) {
	var p StatusPayload
	err := c.get(ctx, "/status/"+id.String(), &p)
	return p, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("oracle: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return fmt.Errorf("oracle: GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oracle: GET %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("oracle: GET %s: decode: %w", path, err)
	}
	return nil
}
