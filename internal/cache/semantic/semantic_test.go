package semantic

import (
	"context"
	"testing"

	"singularityio/internal/rag/embedder"
)

func TestCache_Lookup_DisabledCacheIsAlwaysAMiss(t *testing.T) {
	c := New(nil, embedder.NewDeterministic(8, false, 1), 0, false)
	resp, sim, hit := c.Lookup(context.Background(), "查询")
	if hit {
		t.Error("expected a disabled cache to never hit")
	}
	if resp != "" || sim != 0 {
		t.Errorf("expected zero-value response/similarity, got %q/%v", resp, sim)
	}
}

func TestCache_Lookup_NilStoreDegradesToMiss(t *testing.T) {
	c := New(nil, embedder.NewDeterministic(8, false, 1), 0, true)
	_, _, hit := c.Lookup(context.Background(), "查询")
	if hit {
		t.Error("expected a nil store to degrade to a miss, not an error")
	}
}

func TestCache_Store_DisabledCacheIsNoop(t *testing.T) {
	c := New(nil, embedder.NewDeterministic(8, false, 1), 0, false)
	if err := c.Store(context.Background(), "查询", "回答"); err != nil {
		t.Errorf("expected no-op Store to return nil, got %v", err)
	}
}

func TestNew_DefaultsThresholdWhenNonPositive(t *testing.T) {
	c := New(nil, nil, 0, true)
	if c.threshold != DefaultSimilarityThreshold {
		t.Errorf("threshold = %v, want %v", c.threshold, DefaultSimilarityThreshold)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("短文本", 1000); got != "短文本" {
		t.Errorf("truncate short string changed: %q", got)
	}
	long := make([]byte, 10)
	for i := range long {
		long[i] = 'a'
	}
	if got := truncate(string(long), 5); len(got) != 5 {
		t.Errorf("truncate(long, 5) len = %d, want 5", len(got))
	}
}

func TestCacheKey_PrefixesAndTruncates(t *testing.T) {
	key := cacheKey("某个查询")
	if key[:len("semantic_cache:")] != "semantic_cache:" {
		t.Errorf("cacheKey = %q, want semantic_cache: prefix", key)
	}
}
