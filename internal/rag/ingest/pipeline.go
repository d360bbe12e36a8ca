package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"singularityio/internal/domain"
	"singularityio/internal/rag/chunker"
	"singularityio/internal/rag/describe"
	"singularityio/internal/rag/embedder"
	"singularityio/internal/rag/pdfparse"
	"singularityio/internal/store/bm25"
	"singularityio/internal/store/vector"
)

// Sidecars is the optional table/image evidence a caller (typically the
// C7 PDF parser) has already recovered for the document being ingested.
type Sidecars struct {
	Tables []chunker.TableElement
	Images []chunker.ImageElement
}

// Pipeline chunks a document and writes the resulting evidence into the
// vector and BM25 indexes, assigning each chunk a fresh ID. It is the
// concrete Service for this package's request types (api.go), wired for
// the consultation backend's stores rather than a generic document store.
// It does not act on Options.Chunking, Options.Graph,
// Options.ReingestPolicy or Options.IdempotencyKey.
type Pipeline struct {
	Chunker   *chunker.Chunker
	Embedder  embedder.Embedder
	Vector    *vector.Store
	BM25      *bm25.Index
	Exporter  *pdfparse.Exporter
	Describer *describe.Generator
}

// NewPipeline wires a chunk/embed/index pipeline. exporter/describer may
// be nil to skip CSV/JSON sidecar export and AI table/image description
// generation respectively.
func NewPipeline(c *chunker.Chunker, e embedder.Embedder, v *vector.Store, b *bm25.Index, exporter *pdfparse.Exporter, describer *describe.Generator) *Pipeline {
	return &Pipeline{Chunker: c, Embedder: e, Vector: v, BM25: b, Exporter: exporter, Describer: describer}
}

// Ingest runs Preprocess -> Chunk -> embed -> index for a single document,
// matching the reference knowledge-base ingestion flow. Idempotency is the
// caller's responsibility (ResolveIdempotency) since it depends on a
// document-lookup store the pipeline itself does not own.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest, sidecars Sidecars) (IngestResponse, error) {
	start := time.Now()
	if req.Source == "web" {
		md, err := convertHTML(req.Text, req.URL)
		if err != nil {
			return IngestResponse{}, fmt.Errorf("html to markdown: %w", err)
		}
		req.Text = md
	}

	pre, err := Preprocess(ctx, nil, req)
	if err != nil {
		return IngestResponse{}, fmt.Errorf("preprocess: %w", err)
	}

	tables, images := sidecars.Tables, sidecars.Images
	if p.Describer != nil && (len(tables) > 0 || len(images) > 0) {
		tables, images = p.Describer.Batch(ctx, tables, images)
	}

	chunks, err := p.Chunker.Chunk(chunker.Input{Text: pre.Text, Tables: tables, Images: images})
	if err != nil {
		return IngestResponse{}, fmt.Errorf("chunk: %w", err)
	}

	resp := IngestResponse{DocID: req.ID, Version: req.Options.Version}
	if resp.Version == 0 {
		resp.Version = 1
	}

	var texts []string
	for i := range chunks {
		chunks[i].ID = uuid.NewString()
		chunks[i].Metadata.DocumentID = req.ID
		texts = append(texts, chunks[i].Body)
	}

	var vectors [][]float32
	if req.Options.Embedding.Enabled && p.Embedder != nil && len(texts) > 0 {
		vectors, err = p.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("embedding failed: %v", err))
		}
	}

	for i, ch := range chunks {
		meta := map[string]string{
			"document_id": ch.Metadata.DocumentID,
			"title":       ch.Title,
			"parent":      ch.ParentTitle,
			"type":        string(ch.Type),
		}
		if p.BM25 != nil {
			if err := p.BM25.Index(ctx, ch.ID, ch.Body, meta); err != nil {
				resp.Warnings = append(resp.Warnings, fmt.Sprintf("bm25 index chunk %s: %v", ch.ID, err))
			}
		}
		if p.Vector != nil && i < len(vectors) && vectors[i] != nil {
			if err := p.Vector.Upsert(ctx, vector.DocumentCollection, ch.ID, domain.Embedding(vectors[i]), ch.Body, meta); err != nil {
				resp.Warnings = append(resp.Warnings, fmt.Sprintf("vector upsert chunk %s: %v", ch.ID, err))
			} else {
				resp.Stats.VectorUpserts++
			}
		}
		resp.ChunkIDs = append(resp.ChunkIDs, ch.ID)
	}

	resp.Stats.NumChunks = len(chunks)
	resp.Stats.Duration = time.Since(start)

	if p.Exporter != nil {
		metadata := map[string]any{
			"doc_id":   req.ID,
			"source":   req.Source,
			"title":    req.Title,
			"url":      req.URL,
			"language": pre.Language,
			"hash":     pre.Hash,
		}
		doc := pdfparse.Document{Text: pre.Text, Tables: tables, Images: images}
		if _, err := p.Exporter.ExportAll(ctx, req.ID, doc, metadata); err != nil {
			log.Warn().Err(err).Str("doc_id", req.ID).Msg("pdf_sidecar_export_failed")
		}
	}

	return resp, nil
}
