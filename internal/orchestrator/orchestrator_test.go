package orchestrator

import (
	"context"
	"testing"

	"singularityio/internal/specialists"
)

func TestClassifyIntent_RoutesByKeyword(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"我最近头痛，应该怎么用药", IntentDoctor},
		{"帮我制定一个健康管理计划", IntentHealthManager},
		{"这个功能要如何使用", IntentCustomerService},
		{"帮我分析一下运营数据报告", IntentOperations},
		{"随便聊聊", IntentDoctor}, // all-zero tie resolves to the first-scanned intent, doctor
	}
	for _, c := range cases {
		intent, confidence := ClassifyIntent(c.text)
		if intent != c.want {
			t.Errorf("ClassifyIntent(%q) = %q, want %q", c.text, intent, c.want)
		}
		if confidence != 0.7 {
			t.Errorf("ClassifyIntent(%q) confidence = %v, want 0.7", c.text, confidence)
		}
	}
}

type stubSpecialist struct {
	result specialists.Result
}

func (s stubSpecialist) Process(context.Context, specialists.Request) specialists.Result {
	return s.result
}

func TestProcess_AppendsEmergencyAdvisoryOnHighRisk(t *testing.T) {
	doctor := stubSpecialist{result: specialists.Result{Answer: "建议观察", RiskLevel: specialists.RiskHigh}}
	orch := New(doctor, stubSpecialist{}, stubSpecialist{}, stubSpecialist{})

	resp := orch.Process(context.Background(), "胸痛剧烈疼痛", specialists.Request{})

	if resp.Intent != IntentDoctor {
		t.Fatalf("Intent = %q, want doctor", resp.Intent)
	}
	if !containsAny(resp.Result.Answer, "立即就医") {
		t.Errorf("expected emergency advisory appended, got %q", resp.Result.Answer)
	}
}

func TestProcess_NoAdvisoryOnLowRisk(t *testing.T) {
	doctor := stubSpecialist{result: specialists.Result{Answer: "建议观察", RiskLevel: specialists.RiskLow}}
	orch := New(doctor, stubSpecialist{}, stubSpecialist{}, stubSpecialist{})

	resp := orch.Process(context.Background(), "我有点头痛", specialists.Request{})

	if containsAny(resp.Result.Answer, "立即就医") {
		t.Errorf("did not expect emergency advisory, got %q", resp.Result.Answer)
	}
}

func TestDoctorConsultationType(t *testing.T) {
	cases := map[string]string{
		"这是什么症状":  "diagnosis",
		"这个药物怎么吃": "drug",
		"随便问问":    "general",
	}
	for text, want := range cases {
		if got := doctorConsultationType(text); got != want {
			t.Errorf("doctorConsultationType(%q) = %q, want %q", text, got, want)
		}
	}
}
