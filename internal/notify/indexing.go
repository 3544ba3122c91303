// Package notify pings the search-engine indexing endpoint about listing
// URLs. Calls are fire-and-forget: failures are logged and swallowed, never
// surfaced to the write path that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Notification kinds.
const (
	URLUpdated = "URL_UPDATED"
	URLDeleted = "URL_DELETED"
)

type IndexingClient struct {
	endpoint string
	client   *http.Client
}

// NewIndexingClient targets the given endpoint. An empty endpoint disables
// notifications entirely.
func NewIndexingClient(endpoint string) *IndexingClient {
	return &IndexingClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts {url, type} to the indexing endpoint and reports success.
func (c *IndexingClient) Notify(ctx context.Context, url, kind string) bool {
	if c.endpoint == "" {
		return false
	}

	payload, err := json.Marshal(map[string]string{"url": url, "type": kind})
	if err != nil {
		log.Printf("[indexing] marshal failed: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("[indexing] request build failed: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[indexing] notify %s failed: %v", kind, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[indexing] notify %s returned status %d", kind, resp.StatusCode)
		return false
	}
	return true
}
