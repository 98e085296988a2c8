package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kiranshivaraju/playbook/pkg/models"
)

// HTTPSink POSTs each event as JSON to a collection endpoint.
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSink returns a sink for endpoint. A nil client selects http.DefaultClient.
func NewHTTPSink(endpoint string, client *http.Client) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{endpoint: endpoint, client: client}
}

func (s *HTTPSink) Name() string { return "http" }

// Send treats any non-2xx response as an error.
func (s *HTTPSink) Send(ctx context.Context, ev models.TrackingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("analytics endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
