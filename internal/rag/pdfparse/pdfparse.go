// Package pdfparse extracts text from PDF source documents for ingestion
// into the chunker (internal/rag/chunker). It mirrors the reference
// pipeline's pluggable-parser shape (BasePDFParser / PDFParserFactory):
// a LocalParser does in-process extraction, and parsed output can be
// exported to CSV/JSON sidecars via Exporter.ExportAll for downstream
// inspection. LocalParser is the only parser; there is no remote one.
package pdfparse

import (
	"context"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"

	"singularityio/internal/rag/chunker"
)

// Document is the parser's output: extracted text plus any table/image
// sidecars a given parser implementation was able to recover. LocalParser
// only ever populates Text (page-delimited plain text); a parser with
// layout analysis could populate Tables/Images from the same contract.
type Document struct {
	Text     string
	Tables   []chunker.TableElement
	Images   []chunker.ImageElement
	NumPages int
}

// Parser is the PDF-extraction contract every backend implements.
type Parser interface {
	Parse(ctx context.Context, path string) (Document, error)
}

// LocalParser extracts plain text per page using github.com/dslipak/pdf.
// It never fails on a single bad page: unreadable pages are skipped and
// the page count still reflects the document, matching the reference
// parser's "best effort" behavior on malformed PDFs.
type LocalParser struct{}

// NewLocalParser returns the in-process PDF text extractor.
func NewLocalParser() *LocalParser { return &LocalParser{} }

func (LocalParser) Parse(_ context.Context, path string) (Document, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}

	var buf strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return Document{Text: buf.String(), NumPages: pages}, nil
}
