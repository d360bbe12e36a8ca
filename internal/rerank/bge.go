// Package rerank implements the final cross-encoder + learned-ranking stage
// (C13): an optional BGE-style cross-encoder rerank over an HTTP inference
// endpoint, a feature-based relevance fallback, and a weighted combiner that
// treats any absent model's weight as zero, per reranker.py/ml_reranker.py/
// ranking_optimizer.py.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BGEConfig points at an HTTP cross-encoder reranker service (e.g. a
// BAAI/bge-reranker deployment served behind a /rerank endpoint). Grounded
// on internal/embedding.EmbedText's HTTP client shape.
type BGEConfig struct {
	BaseURL string
	Path    string
	Model   string
	APIKey  string
	Timeout time.Duration
}

type bgeRequest struct {
	Model string   `json:"model"`
	Query string   `json:"query"`
	Docs  []string `json:"documents"`
}

type bgeResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// BGEClient scores query/document pairs with a remote cross-encoder. A
// nil *BGEClient (or one built with an empty BaseURL) is valid and simply
// contributes no score — the caller drops its weight, it never blocks
// generation.
type BGEClient struct {
	cfg BGEConfig
}

func NewBGEClient(cfg BGEConfig) *BGEClient {
	if cfg.Path == "" {
		cfg.Path = "/rerank"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &BGEClient{cfg: cfg}
}

// Available reports whether this client is configured to call a real
// endpoint.
func (c *BGEClient) Available() bool {
	return c != nil && c.cfg.BaseURL != ""
}

// Score returns one relevance score per document, aligned by index.
func (c *BGEClient) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if !c.Available() || len(docs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(bgeRequest{Model: c.cfg.Model, Query: query, Docs: docs})
	if err != nil {
		return nil, err
	}
	cctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, c.cfg.BaseURL+c.cfg.Path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bge rerank error: %s: %s", resp.Status, string(b))
	}

	var parsed bgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	scores := make([]float64, len(docs))
	for _, r := range parsed.Results {
		if r.Index >= 0 && r.Index < len(scores) {
			scores[r.Index] = r.RelevanceScore
		}
	}
	return scores, nil
}
