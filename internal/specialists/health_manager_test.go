package specialists

import (
	"context"
	"testing"

	"singularityio/internal/llm"
)

func TestHealthManagerAgent_Process_RoutesByType(t *testing.T) {
	cases := map[string]string{
		"plan":     "计划已生成",
		"tracking": "追踪建议已生成",
		"":         "常规回答",
	}
	for reqType, answer := range cases {
		client := llm.NewClient(fakeProvider{answer: answer}, "test-model", nil)
		agent := NewHealthManagerAgent(client, nil, nil, nil)

		result := agent.Process(context.Background(), Request{Type: reqType, Question: "我想了解健康管理"})
		if result.Answer != answer {
			t.Errorf("Type=%q: Answer = %q, want %q", reqType, result.Answer, answer)
		}
	}
}

func TestHealthManagerAgent_Process_NilDependenciesDoNotPanic(t *testing.T) {
	client := llm.NewClient(fakeProvider{answer: "ok"}, "test-model", nil)
	agent := NewHealthManagerAgent(client, nil, nil, nil)

	result := agent.Process(context.Background(), Request{Type: "plan", Question: "帮我制定计划", UserProfile: map[string]any{"age": 40}})
	if result.Answer != "ok" {
		t.Errorf("Answer = %q", result.Answer)
	}
}
