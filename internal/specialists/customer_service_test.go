package specialists

import (
	"context"
	"testing"

	"singularityio/internal/llm"
)

func TestCustomerServiceAgent_Process_StaticFAQMatch(t *testing.T) {
	client := llm.NewClient(fakeProvider{answer: "不应使用此回答"}, "test-model", nil)
	agent := NewCustomerServiceAgent(client, nil)

	result := agent.Process(context.Background(), Request{Question: "请问如何使用系统呢"})
	if len(result.ToolsUsed) != 1 || result.ToolsUsed[0] != "static_faq" {
		t.Fatalf("ToolsUsed = %v, want [static_faq]", result.ToolsUsed)
	}
	if result.Answer == "不应使用此回答" {
		t.Error("expected static FAQ answer, not the LLM fallback")
	}
}

func TestCustomerServiceAgent_Process_FallsBackToLLMWhenNoFAQMatch(t *testing.T) {
	client := llm.NewClient(fakeProvider{answer: "这是生成的回答"}, "test-model", nil)
	agent := NewCustomerServiceAgent(client, nil)

	result := agent.Process(context.Background(), Request{Question: "完全不相关的问题"})
	if result.Answer != "这是生成的回答" {
		t.Errorf("Answer = %q, want LLM-generated fallback", result.Answer)
	}
}

func TestCustomerServiceAgent_Process_FeedbackTypeRoutesToFeedbackHandler(t *testing.T) {
	client := llm.NewClient(fakeProvider{answer: "感谢反馈"}, "test-model", nil)
	agent := NewCustomerServiceAgent(client, nil)

	result := agent.Process(context.Background(), Request{
		Type:         "feedback",
		Question:     "系统响应有点慢",
		FeedbackData: map[string]any{"rating": 3},
	})
	if result.Answer != "感谢反馈" {
		t.Errorf("Answer = %q", result.Answer)
	}
}
