package rerank

import (
	"strings"

	"singularityio/internal/domain"
)

// relevance scores a fused result against the query using the same
// lexical-overlap/length features ml_reranker.py's extract_features and
// ranking_optimizer.py's extract_ranking_features draw on, minus the
// trained SVM/decision-tree step neither model ships without its pickled
// weights (see DESIGN.md). It stands in for the "relevance" term of the
// final blend. When no Optimizer is configured, the chain drops the
// optimized term from the blend.
func relevance(query string, r domain.RetrievalResult) float64 {
	queryWords := toWordSet(query)
	docWords := toWordSet(r.Chunk.Body)
	overlap := 0.0
	if len(queryWords) > 0 {
		matched := 0
		for w := range queryWords {
			if _, ok := docWords[w]; ok {
				matched++
			}
		}
		overlap = float64(matched) / float64(len(queryWords))
	}

	lengthScore := 0.0
	if len(r.Chunk.Body) > 20 {
		lengthScore = 1.0
	}

	score := 0.6*overlap + 0.2*lengthScore + 0.2*clamp01(r.RawScore)
	return clamp01(score)
}

func toWordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	m := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return m
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
