package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient implements both Embedder and VectorIndex against a remote
// embedding/similarity service exposing:
//
//	POST {base}/embed  {"text": ...}                       -> {"embedding": [...]}
//	POST {base}/store  {"id", "userId", "embedding", ...}  -> 200
//	POST {base}/search {"userId", "embedding", "limit"}    -> {"results": [{"id", "score"}]}
//	POST {base}/delete {"userId"}                          -> 200
type HTTPClient struct {
	baseURL    string
	dimensions int
	client     *http.Client
}

// HTTPClientConfig holds configuration for the remote embedding service client.
type HTTPClientConfig struct {
	BaseURL    string
	Dimensions int           // defaults to 768
	Timeout    time.Duration // defaults to 10s
	Client     *http.Client  // optional custom client; Timeout is ignored if set
}

// NewHTTPClient creates a client for a remote embedding/similarity service.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding service base URL is required")
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 768
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		dimensions: dimensions,
		client:     client,
	}, nil
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type storeRequest struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Embedding []float64         `json:"embedding"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type searchRequest struct {
	UserID    string    `json:"userId"`
	Embedding []float64 `json:"embedding"`
	Limit     int       `json:"limit"`
}

type searchResponse struct {
	Results []Match `json:"results"`
}

type deleteRequest struct {
	UserID string `json:"userId"`
}

// Embed converts text to a vector via the remote service.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embedResponse
	if err := c.post(ctx, "/embed", embedRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned an empty vector")
	}
	return resp.Embedding, nil
}

// Dimensions returns the configured vector length.
func (c *HTTPClient) Dimensions() int {
	return c.dimensions
}

// Index registers an embedding with the remote service.
func (c *HTTPClient) Index(ctx context.Context, id, userID string, vector []float64, metadata map[string]string) error {
	return c.post(ctx, "/store", storeRequest{
		ID:        id,
		UserID:    userID,
		Embedding: vector,
		Metadata:  metadata,
	}, nil)
}

// Search queries the remote service for the nearest entries.
func (c *HTTPClient) Search(ctx context.Context, userID string, vector []float64, limit int) ([]Match, error) {
	var resp searchResponse
	if err := c.post(ctx, "/search", searchRequest{
		UserID:    userID,
		Embedding: vector,
		Limit:     limit,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// DeleteUser removes all indexed entries for a user from the remote service.
func (c *HTTPClient) DeleteUser(ctx context.Context, userID string) error {
	return c.post(ctx, "/delete", deleteRequest{UserID: userID}, nil)
}

// post sends a JSON request and decodes the JSON response into out when
// out is non-nil.
func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("embedding service returned status %d for %s: %s", resp.StatusCode, path, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
