package specialists

import (
	"context"
	"errors"
	"testing"

	"singularityio/internal/llm"
)

var errProviderFailed = errors.New("provider unavailable")

func TestOperationsAgent_Process_RoutesByType(t *testing.T) {
	cases := map[string]Request{
		"monitoring":   {Type: "monitoring", Metrics: map[string]any{"cpu_percent": 90.0}},
		"optimization": {Type: "optimization", UserProfile: map[string]any{"tier": "enterprise"}},
		"analysis":     {Type: "analysis", OperationsData: map[string]any{"queries": 1000}},
		"":             {Type: "", OperationsData: map[string]any{"queries": 1000}},
	}
	for reqType, req := range cases {
		client := llm.NewClient(fakeProvider{answer: "answer-" + reqType}, "test-model", nil)
		agent := NewOperationsAgent(client)

		result := agent.Process(context.Background(), req)
		if result.Answer != "answer-"+reqType {
			t.Errorf("Type=%q: Answer = %q", reqType, result.Answer)
		}
	}
}

func TestOperationsAgent_Process_GenerateFailureFallsBackToErrorMessage(t *testing.T) {
	client := llm.NewClient(failingProvider{}, "test-model", nil)
	agent := NewOperationsAgent(client)

	// A pre-cancelled context short-circuits Generate's retry loop
	// immediately instead of exhausting its 30s backoff budget.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := agent.Process(ctx, Request{Type: "monitoring", Metrics: map[string]any{}})
	if result.Answer == "" {
		t.Fatal("expected a fallback error message, got empty answer")
	}
}

type failingProvider struct{}

func (failingProvider) Chat(context.Context, []llm.Message, []llm.ToolSchema, string) (llm.Message, error) {
	return llm.Message{}, errProviderFailed
}

func (failingProvider) ChatStream(context.Context, []llm.Message, []llm.ToolSchema, string, llm.StreamHandler) error {
	return errProviderFailed
}
