package bm25

import (
	"context"
	"testing"
)

func TestIndex_SearchRanksMoreRelevantDocumentHigher(t *testing.T) {
	ix := New()
	ctx := context.Background()
	_ = ix.Index(ctx, "doc1", "患者出现发热咳嗽症状已持续三天", nil)
	_ = ix.Index(ctx, "doc2", "今天天气晴朗适合outdoor活动", nil)

	results, err := ix.Search(ctx, "发热咳嗽", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].DocumentID != "doc1" {
		t.Errorf("top result = %q, want doc1", results[0].DocumentID)
	}
}

func TestIndex_SearchEmptyQueryReturnsNil(t *testing.T) {
	ix := New()
	_ = ix.Index(context.Background(), "doc1", "一些文本内容", nil)

	results, err := ix.Search(context.Background(), "的了是", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for a stopword-only query, got %v", results)
	}
}

func TestIndex_RemoveDropsDocumentFromResults(t *testing.T) {
	ix := New()
	ctx := context.Background()
	_ = ix.Index(ctx, "doc1", "患者发热咳嗽三天", nil)

	results, _ := ix.Search(ctx, "发热", 5)
	if len(results) != 1 {
		t.Fatalf("expected 1 result before removal, got %d", len(results))
	}

	_ = ix.Remove(ctx, "doc1")
	results, _ = ix.Search(ctx, "发热", 5)
	if len(results) != 0 {
		t.Errorf("expected 0 results after removal, got %d", len(results))
	}
}

func TestIndex_SearchCapsAtLimit(t *testing.T) {
	ix := New()
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_ = ix.Index(ctx, string(rune('a'+i)), "发热患者咳嗽检查结果异常", nil)
	}

	results, err := ix.Search(ctx, "发热咳嗽", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
}

func TestIndex_ReindexingSameIDReplacesDocument(t *testing.T) {
	ix := New()
	ctx := context.Background()
	_ = ix.Index(ctx, "doc1", "发热咳嗽", nil)
	_ = ix.Index(ctx, "doc1", "完全不相关的内容描述", nil)

	results, _ := ix.Search(ctx, "发热咳嗽", 5)
	if len(results) != 0 {
		t.Errorf("expected reindexed document to no longer match the old text, got %v", results)
	}
}
