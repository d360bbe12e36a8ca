// Package fusion combines the vector/BM25/semantic/KG retrieval paths with
// Reciprocal Rank Fusion, generalizing the 2-source RRF in
// internal/rag/retrieve/fusion.go to the four-source weighting of
// knowledge/rag/multi_retrieval.py.
package fusion

import (
	"sort"

	"singularityio/internal/domain"
)

// DefaultK is the RRF rank-offset constant (§ spec default: 60).
const DefaultK = 60

// Weights holds the per-method contribution before normalization.
type Weights struct {
	Vector   float64
	BM25     float64
	Semantic float64
	KG       float64
}

// DefaultWeights matches the reference fusor's defaults.
var DefaultWeights = Weights{Vector: 0.4, BM25: 0.3, Semantic: 0.2, KG: 0.1}

func (w Weights) forMethod(m domain.RetrievalMethod) float64 {
	switch m {
	case domain.MethodVector:
		return w.Vector
	case domain.MethodBM25:
		return w.BM25
	case domain.MethodSemantic:
		return w.Semantic
	case domain.MethodKG:
		return w.KG
	}
	return 0
}

// dedupeKey is the first 100 chars of the chunk body, matching the
// reference's text-prefix dedup key.
func dedupeKey(body string) string {
	if len(body) > 100 {
		return body[:100]
	}
	return body
}

// Fuse merges per-method ranked result lists with RRF, weighting each
// producing method's contribution and normalizing weights over only the
// methods that actually returned results (methods with zero results are
// dropped from the normalization, matching the reference's behavior of
// only appending weights for paths that succeeded).
func Fuse(results map[domain.RetrievalMethod][]domain.RetrievalResult, weights Weights, k int) []domain.RetrievalResult {
	if k <= 0 {
		k = DefaultK
	}

	var total float64
	for method, list := range results {
		if len(list) == 0 {
			continue
		}
		total += weights.forMethod(method)
	}
	if total <= 0 {
		return nil
	}

	scores := make(map[string]float64)
	first := make(map[string]domain.RetrievalResult)
	perMethod := make(map[string]map[domain.RetrievalMethod]float64)

	for method, list := range results {
		w := weights.forMethod(method) / total
		if w <= 0 {
			continue
		}
		for rank, r := range list {
			key := dedupeKey(r.Chunk.Body)
			if key == "" {
				continue
			}
			contribution := w / float64(k+rank)
			scores[key] += contribution
			if _, ok := first[key]; !ok {
				first[key] = r
			}
			if perMethod[key] == nil {
				perMethod[key] = make(map[domain.RetrievalMethod]float64)
			}
			perMethod[key][method] = contribution
		}
	}

	out := make([]domain.RetrievalResult, 0, len(scores))
	for key, score := range scores {
		r := first[key]
		r.FinalScore = score
		r.PerMethodScore = perMethod[key]
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		return out[i].Chunk.Body < out[j].Chunk.Body
	})
	return out
}
