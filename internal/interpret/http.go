package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"regard/internal/tracking"
)

const maxResponseBytes = 1 << 20

// HTTPService posts the request JSON to an endpoint that answers with an
// interpretation object.
type HTTPService struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPService returns an HTTPService using http.DefaultClient.
func NewHTTPService(endpoint string) *HTTPService {
	return &HTTPService{Endpoint: endpoint, Client: http.DefaultClient}
}

// Interpret performs one POST round trip.
func (s *HTTPService) Interpret(ctx context.Context, req Request) (tracking.AnomalyInterpretation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("post %s: %w", s.Endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("interpretation endpoint returned %s", resp.Status)
	}
	return ParseResponse(raw)
}
