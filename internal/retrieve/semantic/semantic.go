// Package semantic implements the LLM-assisted semantic retrieval path
// (C11): rewrite the query into a retrieval-friendly form, embed it, and
// run it against the vector store. Grounded on
// knowledge/rag/semantic_retriever.py.
package semantic

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"singularityio/internal/domain"
	"singularityio/internal/llm"
	"singularityio/internal/rag/embedder"
	"singularityio/internal/store/vector"
)

const rewritePromptTemplate = `请将以下医疗查询重写为更适合检索的形式，保持核心医疗概念：

查询：%s

请直接返回重写后的查询，不要添加其他说明。`

// Retriever rewrites a query with the LLM, then does a vector search with
// the rewritten text so retrieval benefits from the expanded/normalized
// phrasing without changing the embedding model.
type Retriever struct {
	llmClient *llm.Client
	embed     embedder.Embedder
	store     *vector.Store
}

func NewRetriever(llmClient *llm.Client, embed embedder.Embedder, store *vector.Store) *Retriever {
	return &Retriever{llmClient: llmClient, embed: embed, store: store}
}

// Rewrite returns a retrieval-oriented rephrasing of query, or query
// itself if the LLM call fails — rewriting is an optimization, never a
// precondition for retrieval.
func (r *Retriever) Rewrite(ctx context.Context, query string) string {
	if r.llmClient == nil {
		return query
	}
	prompt := strings.Replace(rewritePromptTemplate, "%s", query, 1)
	rewritten, _, err := r.llmClient.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0.2, MaxTokens: 200})
	if err != nil {
		log.Debug().Err(err).Msg("semantic_rewrite_failed")
		return query
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return query
	}
	return rewritten
}

// Retrieve rewrites the query, embeds it, and searches the document
// collection, marking every hit with Scratch["rewritten"] = 1; the
// rewritten query text itself is not kept on the hit.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	rewritten := r.Rewrite(ctx, query)
	vec, err := embedder.EmbedQuery(ctx, r.embed, rewritten)
	if err != nil {
		return nil, err
	}
	hits, err := r.store.Search(ctx, vector.DocumentCollection, vec, topK)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.RetrievalResult{
			Chunk:      domain.Chunk{ID: h.ID, Body: h.Text},
			SourceTag:  "semantic",
			Method:     domain.MethodSemantic,
			RawScore:   h.Score,
			FinalScore: h.Score,
			Scratch:    map[string]float64{"rewritten": 1},
		})
	}
	return out, nil
}
