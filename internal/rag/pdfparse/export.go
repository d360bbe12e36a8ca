package pdfparse

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"singularityio/internal/rag/chunker"
)

// ExportedFiles names the sidecar artifacts export.ExportAll produced,
// mirroring the reference exporter's "<doc_id>_{pdf_data,tables,images}.csv"
// plus "<doc_id>_metadata.json" naming.
type ExportedFiles struct {
	PDFData  string
	Tables   string
	Images   string
	Metadata string
}

// Exporter writes a parsed Document's sidecars to in-memory CSV/JSON
// payloads and, when an S3Uploader is configured, to object storage under
// exportPrefix. It never blocks ingestion on export failure: callers treat
// a non-nil error as a warning, matching the reference exporter which logs
// and continues rather than aborting the pipeline.
type Exporter struct {
	Uploader     *S3Uploader
	ExportPrefix string
}

// NewExporter returns an Exporter. uploader may be nil, in which case
// ExportAll only computes the sidecar payloads without uploading them.
func NewExporter(uploader *S3Uploader) *Exporter {
	return &Exporter{Uploader: uploader}
}

// ExportAll renders the PDF-data, tables, and images CSVs plus the
// metadata JSON sidecar for docID, and uploads them when an uploader is
// configured. It returns the sidecar file names (uploaded objects are
// stored under ExportPrefix plus these names) so callers can record them
// alongside the ingested document.
func (e *Exporter) ExportAll(ctx context.Context, docID string, doc Document, metadata map[string]any) (ExportedFiles, error) {
	files := ExportedFiles{
		PDFData:  docID + "_pdf_data.csv",
		Tables:   docID + "_tables.csv",
		Images:   docID + "_images.csv",
		Metadata: docID + "_metadata.json",
	}

	pdfDataCSV, err := renderPDFDataCSV(doc)
	if err != nil {
		return files, fmt.Errorf("render pdf_data csv: %w", err)
	}
	tablesCSV, err := renderTablesCSV(doc.Tables)
	if err != nil {
		return files, fmt.Errorf("render tables csv: %w", err)
	}
	imagesCSV, err := renderImagesCSV(doc.Images)
	if err != nil {
		return files, fmt.Errorf("render images csv: %w", err)
	}
	metaJSON, err := renderMetadataJSON(metadata)
	if err != nil {
		return files, fmt.Errorf("render metadata json: %w", err)
	}

	if e.Uploader == nil {
		return files, nil
	}

	uploads := map[string][]byte{
		files.PDFData:  pdfDataCSV,
		files.Tables:   tablesCSV,
		files.Images:   imagesCSV,
		files.Metadata: metaJSON,
	}
	for name, payload := range uploads {
		key := strings.TrimSuffix(e.ExportPrefix, "/") + "/" + name
		if err := e.Uploader.Put(ctx, key, payload); err != nil {
			return files, fmt.Errorf("upload %s: %w", name, err)
		}
	}
	return files, nil
}

func renderPDFDataCSV(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"type", "content", "page", "index"}); err != nil {
		return nil, err
	}
	if doc.Text != "" {
		if err := w.Write([]string{"text", doc.Text, "", "0"}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderTablesCSV(tables []chunker.TableElement) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"page", "index", "title", "html", "description", "bbox"}); err != nil {
		return nil, err
	}
	for i, t := range tables {
		bbox, _ := json.Marshal(t.BBox)
		row := []string{strconv.Itoa(t.Page), strconv.Itoa(i), t.Title, t.HTML, t.AIDescription, string(bbox)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderImagesCSV(images []chunker.ImageElement) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"page", "index", "title", "path", "description", "context_before", "context_after", "bbox"}); err != nil {
		return nil, err
	}
	for i, im := range images {
		bbox, _ := json.Marshal(im.BBox)
		row := []string{
			strconv.Itoa(im.Page), strconv.Itoa(i), im.Title, im.Path,
			im.AIDescription, im.ContextBefore, im.ContextAfter, string(bbox),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderMetadataJSON(metadata map[string]any) ([]byte, error) {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["exported_at"] = time.Now().UTC().Format(time.RFC3339)
	return json.MarshalIndent(out, "", "  ")
}

// S3Uploader puts sidecar export artifacts into an S3-compatible bucket.
// Grounded on the same aws-sdk-go-v2 client construction used by the
// teacher's object-storage adapter, scoped down to the single Put this
// exporter needs.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

// NewS3Uploader builds an uploader against bucket using ambient AWS
// credentials/region resolution (environment, shared config, IMDS).
func NewS3Uploader(ctx context.Context, bucket, region string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Uploader{client: s3.NewFromConfig(awsCfg), bucket: bucket}, nil
}

// Put uploads payload under key.
func (u *S3Uploader) Put(ctx context.Context, key string, payload []byte) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	})
	return err
}
