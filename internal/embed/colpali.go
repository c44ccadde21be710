package embed

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/aryan9600/adapteach-rag/internal/stats"
)

// ColPaliClient talks to a ColPali-family inference server over HTTP. The
// server wraps the model and its processor; this client only moves bytes.
//
// Calls are serialized with a mutex: the server fronts a single accelerator,
// and interleaving batches from concurrent requests corrupts its device
// scheduling. One in-flight request at a time matches its resource contract.
type ColPaliClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int

	mu sync.Mutex

	Stats *stats.Window
}

func NewColPaliClient(baseURL, model string, timeout time.Duration, maxRetries int) *ColPaliClient {
	return &ColPaliClient{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

// Model returns the embedding model identifier.
func (c *ColPaliClient) Model() string {
	return c.model
}

type embedImagesRequest struct {
	Model  string   `json:"model"`
	Images []string `json:"images"` // base64 PNG
}

type embedQueriesRequest struct {
	Model   string   `json:"model"`
	Queries []string `json:"queries"`
}

type embedResponse struct {
	Embeddings []PageEmbedding `json:"embeddings"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// EncodePages embeds rendered page images in a single batch. The server
// returns embeddings in input order; index i always corresponds to image i.
func (c *ColPaliClient) EncodePages(ctx context.Context, images [][]byte) ([]PageEmbedding, error) {
	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}
	body, err := json.Marshal(embedImagesRequest{Model: c.model, Images: encoded})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	embeddings, err := c.post(ctx, "/embed/images", body)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(images) {
		return nil, fmt.Errorf("embed server returned %d embeddings for %d images", len(embeddings), len(images))
	}
	return embeddings, nil
}

// EncodeQuery embeds a free-text query with the model's query-side encoder.
func (c *ColPaliClient) EncodeQuery(ctx context.Context, query string) (PageEmbedding, error) {
	body, err := json.Marshal(embedQueriesRequest{Model: c.model, Queries: []string{query}})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	embeddings, err := c.post(ctx, "/embed/queries", body)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embed server returned %d embeddings for 1 query", len(embeddings))
	}
	return embeddings[0], nil
}

func (c *ColPaliClient) post(ctx context.Context, path string, body []byte) ([]PageEmbedding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		embeddings, err := c.doPost(ctx, path, body)
		if err == nil {
			return embeddings, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *ColPaliClient) doPost(ctx context.Context, path string, body []byte) ([]PageEmbedding, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if c.Stats != nil {
		c.Stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		return nil, fmt.Errorf("embed server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 256<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed server status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp embedResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("embed server error: %s", apiResp.Error.Message)
	}
	return apiResp.Embeddings, nil
}

// Close releases resources.
func (c *ColPaliClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// RetryableError indicates a transient model-service failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	return base
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
