package metricsfeed

import (
	"context"
	"testing"

	"singularityio/internal/specialists"
)

type fakeAnalyzer struct {
	lastReq specialists.Request
	result  specialists.Result
}

func (f *fakeAnalyzer) Process(_ context.Context, req specialists.Request) specialists.Result {
	f.lastReq = req
	return f.result
}

func TestProcessPayload_DecodesMetricsAndCallsAnalyzer(t *testing.T) {
	analyzer := &fakeAnalyzer{result: specialists.Result{Answer: "ok"}}
	payload := []byte(`{"cpu_percent": 82.5, "queue_depth": 12}`)

	result, err := processPayload(context.Background(), analyzer, payload)
	if err != nil {
		t.Fatalf("processPayload: %v", err)
	}
	if result.Answer != "ok" {
		t.Errorf("Answer = %q, want %q", result.Answer, "ok")
	}
	if analyzer.lastReq.Type != "monitoring" {
		t.Errorf("Type = %q, want monitoring", analyzer.lastReq.Type)
	}
	if v, ok := analyzer.lastReq.Metrics["cpu_percent"]; !ok || v.(float64) != 82.5 {
		t.Errorf("Metrics[cpu_percent] = %v, want 82.5", v)
	}
}

func TestProcessPayload_MalformedJSONReturnsError(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	if _, err := processPayload(context.Background(), analyzer, []byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
