// Package specialists implements the doctor / health-manager /
// customer-service / operations agents (C17) that the orchestrator routes
// into, plus the tools they share: multi-path RAG search, direct
// knowledge-graph lookups, and symptom-risk triage. Grounded on
// agents/{doctor,health_manager,customer_service,operations}_agent.py and
// agents/tools/{rag_tool,knowledge_graph_tool,diagnosis_tool}.py.
package specialists

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"singularityio/internal/domain"
	"singularityio/internal/nlp/entity"
	"singularityio/internal/nlp/strategy"
	"singularityio/internal/rag/embedder"
	"singularityio/internal/rerank"
	"singularityio/internal/retrieve/fusion"
	"singularityio/internal/retrieve/kg"
	"singularityio/internal/retrieve/semantic"
	"singularityio/internal/store/bm25"
	"singularityio/internal/store/vector"
)

// RAGTool fans a query out across the vector, BM25, semantic, and
// knowledge-graph paths, fuses them with RRF, and reranks the fused set —
// the Go shape of rag_tool.py's call into AdvancedRAG. Any path may be
// nil; a degraded/absent path simply drops out of fusion's weight
// renormalization rather than failing the request.
type RAGTool struct {
	vectorStore *vector.Store
	embed       embedder.Embedder
	bm25Index   *bm25.Index
	semantic    *semantic.Retriever
	kg          *kg.Retriever
	rerankChain *rerank.Chain
}

func NewRAGTool(vectorStore *vector.Store, embed embedder.Embedder, bm25Index *bm25.Index, semanticRetriever *semantic.Retriever, kgRetriever *kg.Retriever, rerankChain *rerank.Chain) *RAGTool {
	return &RAGTool{
		vectorStore: vectorStore,
		embed:       embed,
		bm25Index:   bm25Index,
		semantic:    semanticRetriever,
		kg:          kgRetriever,
		rerankChain: rerankChain,
	}
}

// SearchResult is the context + attribution pair agents fold into prompts.
type SearchResult struct {
	Results []domain.RetrievalResult
	Context string
	Sources []string
}

// Search runs the full multi-path-retrieve → fuse → rerank pipeline.
func (t *RAGTool) Search(ctx context.Context, query string, topK int) (SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	fanoutK := topK * 2

	var vectorResults, bm25Results, semanticResults, kgResults []domain.RetrievalResult
	var g errgroup.Group

	if t.vectorStore != nil && t.embed != nil {
		g.Go(func() error {
			vec, err := embedder.EmbedQuery(ctx, t.embed, query)
			if err != nil {
				return nil
			}
			hits, err := t.vectorStore.Search(ctx, vector.DocumentCollection, vec, fanoutK)
			if err != nil {
				return nil
			}
			results := make([]domain.RetrievalResult, 0, len(hits))
			for _, h := range hits {
				results = append(results, domain.RetrievalResult{
					Chunk:      domain.Chunk{ID: h.ID, Body: h.Text},
					SourceTag:  "vector",
					Method:     domain.MethodVector,
					RawScore:   h.Score,
					FinalScore: h.Score,
				})
			}
			vectorResults = results
			return nil
		})
	}

	if t.bm25Index != nil {
		g.Go(func() error {
			hits, err := t.bm25Index.Search(ctx, query, fanoutK)
			if err != nil {
				return nil
			}
			results := make([]domain.RetrievalResult, 0, len(hits))
			for _, h := range hits {
				results = append(results, domain.RetrievalResult{
					Chunk:      domain.Chunk{ID: h.DocumentID, Body: h.Text},
					SourceTag:  "bm25",
					Method:     domain.MethodBM25,
					RawScore:   h.Score,
					FinalScore: h.Score,
				})
			}
			bm25Results = results
			return nil
		})
	}

	if t.semantic != nil {
		g.Go(func() error {
			results, err := t.semantic.Retrieve(ctx, query, fanoutK)
			if err != nil {
				return nil
			}
			semanticResults = results
			return nil
		})
	}

	if t.kg != nil {
		g.Go(func() error {
			results, err := t.kg.Retrieve(ctx, query, fanoutK)
			if err != nil {
				return nil
			}
			kgResults = results
			return nil
		})
	}

	_ = g.Wait()

	byMethod := map[domain.RetrievalMethod][]domain.RetrievalResult{
		domain.MethodVector:   vectorResults,
		domain.MethodBM25:     bm25Results,
		domain.MethodSemantic: semanticResults,
		domain.MethodKG:       kgResults,
	}

	fused := fusion.Fuse(byMethod, fusion.DefaultWeights, fusion.DefaultK)
	if t.rerankChain != nil {
		fused = t.rerankChain.Rerank(ctx, query, fused, topK)
	} else if len(fused) > topK {
		fused = fused[:topK]
	}

	return SearchResult{Results: fused, Context: formatContext(fused), Sources: sourcesOf(fused)}, nil
}

func formatContext(results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, r.SourceTag, r.Chunk.Body)
	}
	return b.String()
}

func sourcesOf(results []domain.RetrievalResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.SourceTag)
	}
	return out
}

// ExtractEntities exposes entity recognition to agents that enrich KG
// queries directly (health-manager's disease lookup), rather than going
// through a full RAGTool.Search call.
func ExtractEntities(ctx context.Context, rec *entity.Recognizer, text string) strategy.Entities {
	if rec == nil {
		return strategy.Entities{}
	}
	return rec.Extract(ctx, text)
}
