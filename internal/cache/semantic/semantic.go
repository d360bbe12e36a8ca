// Package semantic implements the embedding-similarity response cache
// (C14), grounded on services/semantic_cache.py: an LLM response is
// reusable for a new prompt when their query embeddings are close enough
// in the vector store's cache collection.
package semantic

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"singularityio/internal/domain"
	"singularityio/internal/rag/embedder"
	"singularityio/internal/store/vector"
)

// DefaultSimilarityThreshold matches the reference service's cosine cutoff
// for treating a cached response as reusable.
const DefaultSimilarityThreshold = 0.95

// Cache stores (query embedding, response) pairs in the vector store's
// cache collection. Lookup treats entries older than domain.SemanticCacheTTL
// (7 days) as misses; expired entries are not deleted from the collection.
type Cache struct {
	store     *vector.Store
	embed     embedder.Embedder
	threshold float64
	enabled   bool
}

func New(store *vector.Store, embed embedder.Embedder, threshold float64, enabled bool) *Cache {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Cache{store: store, embed: embed, threshold: threshold, enabled: enabled}
}

// Lookup returns the cached response for the nearest prior query whose
// similarity clears the threshold. A store/embedder failure degrades to a
// miss rather than an error, matching the reference's "cache failure never
// blocks generation" behavior.
func (c *Cache) Lookup(ctx context.Context, query string) (response string, similarity float64, hit bool) {
	if !c.enabled || c == nil || c.store == nil {
		return "", 0, false
	}
	vec, err := embedder.EmbedQuery(ctx, c.embed, query)
	if err != nil {
		log.Debug().Err(err).Msg("semantic_cache_embed_failed")
		return "", 0, false
	}
	results, err := c.store.Search(ctx, vector.CacheCollection, vec, 1)
	if err != nil || len(results) == 0 {
		return "", 0, false
	}
	best := results[0]
	if best.Score < c.threshold {
		return "", best.Score, false
	}
	if ts, err := time.Parse(time.RFC3339, best.Metadata["stored_at"]); err == nil && time.Since(ts) > domain.SemanticCacheTTL {
		return "", best.Score, false
	}
	return best.Metadata["response"], best.Score, true
}

// Store persists a query/response pair stamped with the current time;
// Lookup ignores entries whose stamp is older than domain.SemanticCacheTTL.
func (c *Cache) Store(ctx context.Context, query, response string) error {
	if !c.enabled || c == nil || c.store == nil {
		return nil
	}
	vec, err := embedder.EmbedQuery(ctx, c.embed, query)
	if err != nil {
		return err
	}
	id := cacheKey(query)
	meta := map[string]string{
		"response":  response,
		"query":     truncate(query, 1000),
		"stored_at": time.Now().UTC().Format(time.RFC3339),
	}
	return c.store.Upsert(ctx, vector.CacheCollection, id, vec, query, meta)
}

func cacheKey(query string) string {
	return "semantic_cache:" + truncate(query, 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Entry adapts a lookup hit into the domain-level cache entry shape used
// elsewhere (e.g. for telemetry).
func Entry(query, response string, sim float64, vec domain.Embedding) domain.CacheEntry {
	return domain.CacheEntry{
		QueryEmbedding: vec,
		QueryText:      query,
		Response:       response,
		Timestamp:      time.Now().UTC(),
	}
}
