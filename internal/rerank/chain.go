package rerank

import (
	"context"
	"sort"

	"singularityio/internal/domain"
)

// Weights mirrors the final-ordering blend: relevance 0.3, bge 0.3,
// ml 0.2, optimized 0.2, prior RRF 0.1. Any source with no model wired
// (bge, ml, optimized) drops its weight and the remainder renormalizes,
// matching the reference's "absent model contributes nothing" behavior.
type Weights struct {
	Relevance float64
	BGE       float64
	ML        float64
	Optimized float64
	RRF       float64
}

var DefaultWeights = Weights{Relevance: 0.3, BGE: 0.3, ML: 0.2, Optimized: 0.2, RRF: 0.1}

// MLScorer and Optimizer are the trained-model hooks that ml_reranker.py's
// SVM/decision-tree ensemble and ranking_optimizer.py's decision tree
// provide in the reference. Neither ships a portable model artifact in
// this corpus, so they are optional: a nil value simply removes that term
// from the blend rather than producing a score of zero for every
// candidate (which would bias the ranking instead of abstaining from it).
type MLScorer interface {
	Score(ctx context.Context, query string, r domain.RetrievalResult) (float64, bool)
}

type Optimizer interface {
	Score(ctx context.Context, query string, r domain.RetrievalResult, position int) (float64, bool)
}

// Chain is the C13 entry point: cross-encoder rerank (if configured),
// feature-based relevance, optional learned scorers, combined and
// renormalized over whichever terms actually produced a score.
type Chain struct {
	bge       *BGEClient
	ml        MLScorer
	optimizer Optimizer
	weights   Weights
}

func NewChain(bge *BGEClient, ml MLScorer, optimizer Optimizer, weights Weights) *Chain {
	return &Chain{bge: bge, ml: ml, optimizer: optimizer, weights: weights}
}

// Rerank reorders fused results in place (by returning a new sorted
// slice) and caps the output at topK when topK > 0.
func (c *Chain) Rerank(ctx context.Context, query string, results []domain.RetrievalResult, topK int) []domain.RetrievalResult {
	if len(results) == 0 {
		return results
	}

	var bgeScores []float64
	if c.bge.Available() {
		docs := make([]string, len(results))
		for i, r := range results {
			docs[i] = r.Chunk.Body
		}
		if scores, err := c.bge.Score(ctx, query, docs); err == nil && len(scores) == len(results) {
			bgeScores = scores
		}
	}

	out := make([]domain.RetrievalResult, len(results))
	copy(out, results)

	for i := range out {
		terms := make(map[string]float64)
		weights := make(map[string]float64)

		terms["relevance"] = relevance(query, out[i])
		weights["relevance"] = c.weights.Relevance

		if bgeScores != nil {
			terms["bge"] = clamp01(bgeScores[i])
			weights["bge"] = c.weights.BGE
		}

		if c.ml != nil {
			if score, ok := c.ml.Score(ctx, query, out[i]); ok {
				terms["ml"] = clamp01(score)
				weights["ml"] = c.weights.ML
			}
		}

		if c.optimizer != nil {
			if score, ok := c.optimizer.Score(ctx, query, out[i], i); ok {
				terms["optimized"] = clamp01(score)
				weights["optimized"] = c.weights.Optimized
			}
		}

		terms["rrf"] = clamp01(out[i].FinalScore)
		weights["rrf"] = c.weights.RRF

		var total float64
		for k := range terms {
			total += weights[k]
		}
		if total <= 0 {
			continue
		}

		var blended float64
		for k, v := range terms {
			blended += v * (weights[k] / total)
		}

		if out[i].Scratch == nil {
			out[i].Scratch = make(map[string]float64, len(terms))
		}
		for k, v := range terms {
			out[i].Scratch[k] = v
		}
		out[i].FinalScore = blended
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
