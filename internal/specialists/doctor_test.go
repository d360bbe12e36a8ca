package specialists

import (
	"context"
	"testing"

	"singularityio/internal/llm"
)

type fakeProvider struct {
	answer string
}

func (f fakeProvider) Chat(context.Context, []llm.Message, []llm.ToolSchema, string) (llm.Message, error) {
	return llm.Message{Role: "assistant", Content: f.answer}, nil
}

func (f fakeProvider) ChatStream(context.Context, []llm.Message, []llm.ToolSchema, string, llm.StreamHandler) error {
	return nil
}

func TestClassifyConsultationType(t *testing.T) {
	cases := map[string]string{
		"我这是什么症状":  "diagnosis",
		"这个药物怎么用药": "drug",
		"你好":      "general",
	}
	for q, want := range cases {
		if got := classifyConsultationType(q); got != want {
			t.Errorf("classifyConsultationType(%q) = %q, want %q", q, got, want)
		}
	}
}

func TestDoctorAgent_Process_DiagnosisAppendsRiskAdvisoryOnHighRisk(t *testing.T) {
	client := llm.NewClient(fakeProvider{answer: "初步建议..."}, "test-model", nil)
	agent := NewDoctorAgent(client, nil, nil)

	result := agent.Process(context.Background(), Request{Question: "突发胸痛，这是什么症状"})
	if result.RiskLevel != RiskHigh && result.RiskLevel != RiskCritical {
		t.Fatalf("RiskLevel = %q, want high or critical", result.RiskLevel)
	}
	if result.Diagnosis == nil {
		t.Fatal("expected Diagnosis to be populated")
	}
	if !containsAny(result.Answer, "风险提示") {
		t.Errorf("expected risk advisory appended, got %q", result.Answer)
	}
}

func TestDoctorAgent_Process_GeneralConsultationHasNoDiagnosis(t *testing.T) {
	client := llm.NewClient(fakeProvider{answer: "您好，有什么可以帮您"}, "test-model", nil)
	agent := NewDoctorAgent(client, nil, nil)

	result := agent.Process(context.Background(), Request{Question: "你好"})
	if result.Diagnosis != nil {
		t.Errorf("expected no diagnosis for a general consultation, got %v", result.Diagnosis)
	}
}

func TestDoctorAgent_Process_DrugQuestionRoutesToDrugHandler(t *testing.T) {
	client := llm.NewClient(fakeProvider{answer: "用药建议..."}, "test-model", nil)
	agent := NewDoctorAgent(client, nil, nil)

	result := agent.Process(context.Background(), Request{Question: "高血压用药有哪些注意事项"})
	if result.Answer != "用药建议..." {
		t.Errorf("Answer = %q", result.Answer)
	}
}
