package ingest

import (
	"context"
	"testing"

	"singularityio/internal/rag/chunker"
	"singularityio/internal/rag/embedder"
	"singularityio/internal/store/bm25"
)

func TestPipeline_Ingest_IndexesIntoBM25(t *testing.T) {
	p := NewPipeline(chunker.New(500, 50), embedder.NewDeterministic(8, true, 1), nil, bm25.New(), nil, nil)

	req := IngestRequest{
		ID:     "doc-1",
		Source: "upload",
		Text:   "# 标题\n\n这是一个测试文档，用于验证分块与索引流程。",
		Options: IngestOptions{
			Embedding: EmbeddingOptions{Enabled: false},
		},
	}

	resp, err := p.Ingest(context.Background(), req, Sidecars{})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if resp.Stats.NumChunks == 0 {
		t.Fatalf("expected at least one chunk")
	}
	if len(resp.ChunkIDs) != resp.Stats.NumChunks {
		t.Errorf("ChunkIDs len = %d, want %d", len(resp.ChunkIDs), resp.Stats.NumChunks)
	}

	results, err := p.BM25.Search(context.Background(), "测试文档", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Errorf("expected bm25 search to find the ingested chunk")
	}
}

func TestPipeline_Ingest_ConvertsWebSourceHTML(t *testing.T) {
	p := NewPipeline(chunker.New(500, 50), embedder.NewDeterministic(8, true, 1), nil, bm25.New(), nil, nil)

	req := IngestRequest{
		ID:     "doc-2",
		Source: "web",
		URL:    "https://example.com/article",
		Text:   "<h1>标题</h1><p>这是一段正文内容，用于验证HTML转换。</p>",
		Options: IngestOptions{
			Embedding: EmbeddingOptions{Enabled: false},
		},
	}

	resp, err := p.Ingest(context.Background(), req, Sidecars{})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if resp.Stats.NumChunks == 0 {
		t.Fatalf("expected at least one chunk from converted HTML")
	}

	results, err := p.BM25.Search(context.Background(), "正文内容", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Errorf("expected bm25 search to find content extracted from HTML")
	}
}
