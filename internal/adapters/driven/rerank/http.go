// Package rerank provides cross-encoder re-ranking adapters for Stage 2
// of the retrieval pipeline.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
)

// Ensure CrossEncoder implements the interface.
var _ driven.Reranker = (*CrossEncoder)(nil)

// Default configuration values.
const (
	DefaultModel   = "BAAI/bge-reranker-v2-m3"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the cross-encoder client.
type Config struct {
	// Endpoint is the scoring API URL (required).
	Endpoint string

	// Model is the cross-encoder model name (default: bge-reranker-v2-m3).
	Model string

	// APIKey authenticates requests when non-empty.
	APIKey string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// CrossEncoder scores (query, chunk) pairs against an HTTP inference
// endpoint that accepts a batch of text pairs and returns one relevance
// score per pair.
type CrossEncoder struct {
	client   *http.Client
	endpoint string
	model    string
	apiKey   string
}

// rerankRequest is the scoring API request format.
type rerankRequest struct {
	Model string      `json:"model"`
	Pairs [][2]string `json:"pairs"`
}

// rerankResponse is the scoring API response format.
type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// NewCrossEncoder creates a new cross-encoder client.
func NewCrossEncoder(cfg Config) (*CrossEncoder, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("rerank: endpoint is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &CrossEncoder{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
	}, nil
}

// Rerank scores each candidate jointly with the query. Scores come back
// in input order; ordering and truncation are the retriever's job.
func (r *CrossEncoder) Rerank(
	ctx context.Context, query string, candidates []domain.RetrievalCandidate,
) ([]float64, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	pairs := make([][2]string, len(candidates))
	for i := range candidates {
		pairs[i] = [2]string{query, candidates[i].Chunk.Content}
	}

	jsonBody, err := json.Marshal(rerankRequest{Model: r.model, Pairs: pairs})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reranker error (status %d): %s", resp.StatusCode, string(body))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(rerankResp.Scores) != len(candidates) {
		return nil, fmt.Errorf("reranker returned %d scores for %d candidates",
			len(rerankResp.Scores), len(candidates))
	}

	return rerankResp.Scores, nil
}

// ModelName returns the name of the re-ranking model being used.
func (r *CrossEncoder) ModelName() string {
	return r.model
}
