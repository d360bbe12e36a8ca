package strategy

import "testing"

func TestSelector_Classify_DrugInteractionQuestion(t *testing.T) {
	s := NewSelector()
	plan := s.Classify("阿司匹林和华法林能一起吃吗", Entities{})
	if plan.QuestionType != string(DrugInteraction) {
		t.Errorf("QuestionType = %q, want %q", plan.QuestionType, DrugInteraction)
	}
	if plan.StrategyName != "drug_interaction" {
		t.Errorf("StrategyName = %q", plan.StrategyName)
	}
}

func TestSelector_Classify_FallsBackToGeneralWithNoPatternMatch(t *testing.T) {
	s := NewSelector()
	plan := s.Classify("今天天气怎么样", Entities{})
	if plan.QuestionType != string(GeneralConsultation) {
		t.Errorf("QuestionType = %q, want %q", plan.QuestionType, GeneralConsultation)
	}
}

func TestSelector_Classify_AdjustsGeneralByDetectedSymptoms(t *testing.T) {
	s := NewSelector()
	plan := s.Classify("今天天气怎么样", Entities{Symptoms: []string{"头痛"}})
	if plan.QuestionType != string(SymptomDiagnosis) {
		t.Errorf("QuestionType = %q, want %q (entity-adjusted)", plan.QuestionType, SymptomDiagnosis)
	}
}

func TestSelector_Classify_ConfidenceNeverExceedsOne(t *testing.T) {
	s := NewSelector()
	plan := s.Classify("阿司匹林的作用阿司匹林的副作用阿司匹林的用法", Entities{
		Drugs: []string{"阿司匹林"}, Diseases: []string{"高血压"}, Symptoms: []string{"头痛"},
	})
	if plan.Confidence > 1.0 {
		t.Errorf("Confidence = %v, want <= 1.0", plan.Confidence)
	}
}

func TestEntities_Count(t *testing.T) {
	e := Entities{Diseases: []string{"a"}, Symptoms: []string{"b", "c"}}
	if got := e.count(); got != 3 {
		t.Errorf("count() = %d, want 3", got)
	}
}
