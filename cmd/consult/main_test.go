package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"singularityio/internal/orchestrator"
	"singularityio/internal/rag/chunker"
	"singularityio/internal/rag/embedder"
	"singularityio/internal/rag/ingest"
	"singularityio/internal/rag/pdfparse"
	"singularityio/internal/specialists"
	"singularityio/internal/store/bm25"
)

type stubSpecialist struct {
	result specialists.Result
}

func (s stubSpecialist) Process(context.Context, specialists.Request) specialists.Result {
	return s.result
}

func newTestOrchestrator() *orchestrator.Orchestrator {
	doctor := stubSpecialist{result: specialists.Result{Answer: "请观察症状变化", RiskLevel: specialists.RiskLow}}
	other := stubSpecialist{result: specialists.Result{Answer: "好的"}}
	return orchestrator.New(doctor, other, other, other)
}

func TestConsultHandler_RejectsNonPOST(t *testing.T) {
	handler := consultHandler(newTestOrchestrator())
	req := httptest.NewRequest(http.MethodGet, "/v1/consult", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestConsultHandler_RejectsEmptyQuestion(t *testing.T) {
	handler := consultHandler(newTestOrchestrator())
	body, _ := json.Marshal(consultRequest{Question: ""})
	req := httptest.NewRequest(http.MethodPost, "/v1/consult", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestConsultHandler_ReturnsOrchestratorResponse(t *testing.T) {
	handler := consultHandler(newTestOrchestrator())
	body, _ := json.Marshal(consultRequest{Question: "我最近头痛应该怎么用药"})
	req := httptest.NewRequest(http.MethodPost, "/v1/consult", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	var resp consultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Intent != string(orchestrator.IntentDoctor) {
		t.Errorf("Intent = %q, want %q", resp.Intent, orchestrator.IntentDoctor)
	}
	if resp.Answer != "请观察症状变化" {
		t.Errorf("Answer = %q", resp.Answer)
	}
}

func newTestIngestPipeline() *ingest.Pipeline {
	return ingest.NewPipeline(chunker.New(500, 50), embedder.NewDeterministic(8, true, 1), nil, bm25.New(), nil, nil)
}

type stubPDFParser struct {
	doc pdfparse.Document
	err error
}

func (s stubPDFParser) Parse(context.Context, string) (pdfparse.Document, error) {
	return s.doc, s.err
}

func TestIngestHandler_RejectsNonPOST(t *testing.T) {
	handler := ingestHandler(newTestIngestPipeline(), stubPDFParser{})
	req := httptest.NewRequest(http.MethodGet, "/v1/ingest", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestIngestHandler_RequiresTextOrPDFPath(t *testing.T) {
	handler := ingestHandler(newTestIngestPipeline(), stubPDFParser{})
	body, _ := json.Marshal(ingestRequest{DocID: "doc-1"})
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestIngestHandler_IngestsInlineText(t *testing.T) {
	handler := ingestHandler(newTestIngestPipeline(), stubPDFParser{})
	body, _ := json.Marshal(ingestRequest{Text: "患者主诉头痛三天，偶有恶心。" + "这是一段足够长的正文内容用于生成至少一个分块。"})
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.NumChunks == 0 {
		t.Error("expected at least one chunk")
	}
	if resp.DocID == "" {
		t.Error("expected a generated doc_id when none was supplied")
	}
}

func TestIngestHandler_PDFParseFailureReturns422(t *testing.T) {
	handler := ingestHandler(newTestIngestPipeline(), stubPDFParser{err: context.DeadlineExceeded})
	body, _ := json.Marshal(ingestRequest{PDFPath: "/tmp/missing.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}
