// internal/dispatch/deliver.go
package dispatch

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// Deliverer pushes raw event payloads to a tenant's webhook. An empty URL
// means the tenant has no delivery target and events are acknowledged
// without being forwarded.
type Deliverer struct {
	client *http.Client
	url    string
}

func NewDeliverer(url string) *Deliverer {
	return &Deliverer{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
}

func (d *Deliverer) Deliver(body []byte) error {
	if d.url == "" {
		return nil
	}

	resp, err := d.client.Post(d.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
