package rerank

import (
	"context"
	"testing"

	"singularityio/internal/domain"
)

func mkResult(body string, rawScore, finalScore float64) domain.RetrievalResult {
	return domain.RetrievalResult{
		Chunk:      domain.Chunk{Body: body},
		RawScore:   rawScore,
		FinalScore: finalScore,
	}
}

func TestChain_Rerank_DropsAbsentModelWeights(t *testing.T) {
	chain := NewChain(NewBGEClient(BGEConfig{}), nil, nil, DefaultWeights)
	results := []domain.RetrievalResult{
		mkResult("patient has a persistent cough and fever", 0.5, 0.2),
	}

	out := chain.Rerank(context.Background(), "cough fever", results, 0)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if _, ok := out[0].Scratch["bge"]; ok {
		t.Error("expected no bge term when BGEClient is unconfigured")
	}
	if _, ok := out[0].Scratch["relevance"]; !ok {
		t.Error("expected relevance term to always be present")
	}
	if _, ok := out[0].Scratch["rrf"]; !ok {
		t.Error("expected rrf term to always be present")
	}
}

func TestChain_Rerank_SortsDescendingByBlendedScore(t *testing.T) {
	chain := NewChain(NewBGEClient(BGEConfig{}), nil, nil, DefaultWeights)
	results := []domain.RetrievalResult{
		mkResult("unrelated text about something else entirely", 0.1, 0.05),
		mkResult("fever cough fever cough matches query exactly", 0.9, 0.8),
	}

	out := chain.Rerank(context.Background(), "fever cough", results, 0)
	if out[0].Chunk.Body != results[1].Chunk.Body {
		t.Errorf("expected higher-relevance doc first, got %q", out[0].Chunk.Body)
	}
}

func TestChain_Rerank_CapsAtTopK(t *testing.T) {
	chain := NewChain(NewBGEClient(BGEConfig{}), nil, nil, DefaultWeights)
	results := []domain.RetrievalResult{
		mkResult("doc one has some content here", 0.5, 0.5),
		mkResult("doc two has some content here", 0.4, 0.4),
		mkResult("doc three has some content here", 0.3, 0.3),
	}

	out := chain.Rerank(context.Background(), "content", results, 2)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}

func TestChain_Rerank_EmptyInputReturnsEmpty(t *testing.T) {
	chain := NewChain(NewBGEClient(BGEConfig{}), nil, nil, DefaultWeights)
	out := chain.Rerank(context.Background(), "anything", nil, 0)
	if len(out) != 0 {
		t.Errorf("expected empty output, got %v", out)
	}
}

type stubMLScorer struct {
	score float64
}

func (s stubMLScorer) Score(context.Context, string, domain.RetrievalResult) (float64, bool) {
	return s.score, true
}

func TestChain_Rerank_IncludesMLScorerWhenConfigured(t *testing.T) {
	chain := NewChain(NewBGEClient(BGEConfig{}), stubMLScorer{score: 0.9}, nil, DefaultWeights)
	results := []domain.RetrievalResult{mkResult("some document body text", 0.5, 0.5)}

	out := chain.Rerank(context.Background(), "query", results, 0)
	if _, ok := out[0].Scratch["ml"]; !ok {
		t.Error("expected ml term to be present when MLScorer is configured")
	}
}
