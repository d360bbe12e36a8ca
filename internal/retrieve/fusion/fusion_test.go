package fusion

import (
	"testing"

	"singularityio/internal/domain"
)

func result(body string) domain.RetrievalResult {
	return domain.RetrievalResult{Chunk: domain.Chunk{Body: body}}
}

func TestFuse_RanksByWeightedReciprocalRank(t *testing.T) {
	results := map[domain.RetrievalMethod][]domain.RetrievalResult{
		domain.MethodVector: {result("alpha"), result("beta")},
		domain.MethodBM25:   {result("beta"), result("alpha")},
	}

	out := Fuse(results, DefaultWeights, 0)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].FinalScore <= out[1].FinalScore {
		t.Errorf("expected sorted descending by FinalScore, got %v", out)
	}
	if out[0].PerMethodScore == nil {
		t.Error("expected PerMethodScore to be populated")
	}
}

func TestFuse_DropsMethodsWithNoResultsFromNormalization(t *testing.T) {
	results := map[domain.RetrievalMethod][]domain.RetrievalResult{
		domain.MethodVector: {result("only")},
		domain.MethodKG:     {},
	}

	out := Fuse(results, DefaultWeights, DefaultK)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	// Vector is the sole contributing method, so its weight is fully
	// normalized to 1.0 and the score is exactly 1/(k+rank) at rank 0.
	want := 1.0 / float64(DefaultK)
	if diff := out[0].FinalScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("FinalScore = %v, want %v", out[0].FinalScore, want)
	}
}

func TestFuse_DedupesByBodyPrefixAcrossMethods(t *testing.T) {
	results := map[domain.RetrievalMethod][]domain.RetrievalResult{
		domain.MethodVector: {result("shared body")},
		domain.MethodBM25:   {result("shared body")},
	}

	out := Fuse(results, DefaultWeights, DefaultK)
	if len(out) != 1 {
		t.Fatalf("expected dedup to merge into a single result, got %d", len(out))
	}
	if len(out[0].PerMethodScore) != 2 {
		t.Errorf("expected contributions from both methods, got %v", out[0].PerMethodScore)
	}
}

func TestFuse_EmptyInputReturnsNil(t *testing.T) {
	out := Fuse(map[domain.RetrievalMethod][]domain.RetrievalResult{}, DefaultWeights, DefaultK)
	if out != nil {
		t.Errorf("expected nil for empty input, got %v", out)
	}
}
