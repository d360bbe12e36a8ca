package rerank

import (
	"testing"

	"singularityio/internal/domain"
)

func TestRelevance_HigherOverlapScoresHigher(t *testing.T) {
	highOverlap := domain.RetrievalResult{Chunk: domain.Chunk{Body: "fever cough and sore throat for three days"}}
	noOverlap := domain.RetrievalResult{Chunk: domain.Chunk{Body: "unrelated topic about something else"}}

	high := relevance("fever cough sore throat", highOverlap)
	low := relevance("fever cough sore throat", noOverlap)

	if high <= low {
		t.Errorf("relevance(high overlap) = %v, want > relevance(no overlap) = %v", high, low)
	}
}

func TestRelevance_EmptyQueryProducesNoOverlapTerm(t *testing.T) {
	r := domain.RetrievalResult{Chunk: domain.Chunk{Body: "some document text"}, RawScore: 0}
	score := relevance("", r)
	if score < 0 || score > 1 {
		t.Errorf("relevance score out of [0,1]: %v", score)
	}
}

func TestClamp01_BoundsValues(t *testing.T) {
	cases := map[float64]float64{
		-0.5: 0,
		0.5:  0.5,
		1.5:  1,
	}
	for in, want := range cases {
		if got := clamp01(in); got != want {
			t.Errorf("clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}
