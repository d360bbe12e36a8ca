package entity

import (
	"context"
	"testing"
)

func TestRecognizer_Extract_NilLLMClientUsesFallback(t *testing.T) {
	r := NewRecognizer(nil, nil)
	ents := r.Extract(context.Background(), "患者头痛发热，服用阿司匹林")
	if len(ents.Symptoms) == 0 {
		t.Errorf("expected fallback to match symptom keywords, got %v", ents)
	}
	if len(ents.Drugs) == 0 {
		t.Errorf("expected fallback to match drug keywords, got %v", ents)
	}
}

func TestRecognizer_Extract_CachesByQuery(t *testing.T) {
	r := NewRecognizer(nil, nil)
	first := r.Extract(context.Background(), "头痛")
	if _, ok := r.cache["头痛"]; !ok {
		t.Fatal("expected query to be cached")
	}
	second := r.Extract(context.Background(), "头痛")
	if len(first.Symptoms) != len(second.Symptoms) {
		t.Errorf("expected identical cached result, got %v vs %v", first, second)
	}
}

func TestRecognizer_ExtractWithKGValidation_NilGraphReturnsUnvalidated(t *testing.T) {
	r := NewRecognizer(nil, nil)
	ents := r.ExtractWithKGValidation(context.Background(), "头痛发热")
	if len(ents.Symptoms) == 0 {
		t.Errorf("expected unvalidated fallback entities, got %v", ents)
	}
}

func TestParseLLMResponse_ValidJSON(t *testing.T) {
	resp := `这是一些前缀文字 {"diseases": ["高血压"], "symptoms": ["头痛", "头痛"], "drugs": [], "examinations": []} 后缀`
	ents, ok := parseLLMResponse(resp)
	if !ok {
		t.Fatal("expected parseLLMResponse to succeed")
	}
	if len(ents.Diseases) != 1 || ents.Diseases[0] != "高血压" {
		t.Errorf("Diseases = %v", ents.Diseases)
	}
	if len(ents.Symptoms) != 1 {
		t.Errorf("expected dedup of repeated symptom, got %v", ents.Symptoms)
	}
}

func TestParseLLMResponse_InvalidJSONFallsBack(t *testing.T) {
	_, ok := parseLLMResponse("not json at all")
	if ok {
		t.Error("expected parseLLMResponse to fail on non-JSON input")
	}
}

func TestDedupNonEmpty_TrimsAndDrops(t *testing.T) {
	out := dedupNonEmpty([]string{"a", " ", "a", "b", ""})
	if len(out) != 2 {
		t.Errorf("dedupNonEmpty = %v, want [a b]", out)
	}
}

func TestFallbackExtraction_MatchesKnownKeywords(t *testing.T) {
	ents := fallbackExtraction("患者有高血压病史，出现头痛和发热，使用阿司匹林片治疗，建议做血常规检查")
	if len(ents.Diseases) == 0 {
		t.Error("expected at least one disease match")
	}
	if len(ents.Symptoms) == 0 {
		t.Error("expected at least one symptom match")
	}
	if len(ents.Drugs) == 0 {
		t.Error("expected at least one drug match")
	}
	if len(ents.Examinations) == 0 {
		t.Error("expected at least one examination match")
	}
}
