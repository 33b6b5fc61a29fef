package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"personmatch/internal/query"
)

var tracer = otel.Tracer("personmatch/search")

// Client executes a query against the person index and returns hits in
// backend order.
type Client interface {
	Search(ctx context.Context, q query.Query, size int) ([]Record, error)
}

// HTTPClient talks to the search backend over its JSON HTTP API.
type HTTPClient struct {
	baseURL string
	index   string
	client  *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.client = c }
}

// NewHTTPClient constructs a client for the given backend URL and index.
func NewHTTPClient(baseURL, index string, opts ...Option) *HTTPClient {
	h := &HTTPClient{
		baseURL: baseURL,
		index:   index,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Record `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (h *HTTPClient) Search(ctx context.Context, q query.Query, size int) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("search.index", h.index),
		attribute.Int("search.size", size),
	))
	defer span.End()

	body, err := json.Marshal(q.Body(size))
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/_search", h.baseURL, h.index), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search backend returned status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	records := make([]Record, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		records = append(records, hit.Source)
	}
	return records, nil
}
