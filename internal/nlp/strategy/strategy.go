// Package strategy classifies a consultation query into a question type
// and resolves it to a retrieval strategy (C9), grounded on
// knowledge/ml/query_strategy.py's pattern-scoring classifier.
package strategy

import (
	"regexp"

	"singularityio/internal/domain"
)

type QuestionType string

const (
	DiseaseInfo         QuestionType = "disease_info"
	SymptomDiagnosis    QuestionType = "symptom_diagnosis"
	DrugInfo            QuestionType = "drug_info"
	DrugInteraction     QuestionType = "drug_interaction"
	ExaminationAdvice   QuestionType = "examination_advice"
	TreatmentPlan       QuestionType = "treatment_plan"
	GeneralConsultation QuestionType = "general_consultation"
)

var patterns = map[QuestionType][]*regexp.Regexp{
	DiseaseInfo: compileAll(
		`什么是(.+?)[？?]`, `(.+?)是什么`, `(.+?)的介绍`, `了解(.+?)`,
		`(.+?)的症状`, `(.+?)的治疗`, `(.+?)怎么治`, `(.+?)吃什么药`,
	),
	SymptomDiagnosis: compileAll(
		`(.+?)可能是什么病`, `(.+?)是什么原因`, `(.+?)会不会是(.+?)`,
		`(.+?)需要检查什么`, `(.+?)怎么办`, `(.+?)怎么治疗`, `根据(.+?)诊断`,
	),
	DrugInfo: compileAll(
		`(.+?)的作用`, `(.+?)的副作用`, `(.+?)怎么吃`, `(.+?)的用法`,
		`(.+?)的剂量`, `(.+?)适合(.+?)吗`,
	),
	DrugInteraction: compileAll(
		`(.+?)和(.+?)能一起吃`, `(.+?)和(.+?)的相互作用`, `(.+?)不能和(.+?)一起`, `药物相互作用`,
	),
	ExaminationAdvice: compileAll(
		`需要做什么检查`, `(.+?)检查什么`, `(.+?)需要(.+?)检查`, `检查项目`, `化验什么`,
	),
	TreatmentPlan: compileAll(
		`(.+?)的治疗方案`, `(.+?)怎么治疗`, `(.+?)的治疗方法`, `(.+?)的用药`, `(.+?)的护理`,
	),
	GeneralConsultation: compileAll(`咨询`, `问一下`, `请问`, `帮忙`),
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// strategyMap mirrors STRATEGY_MAP: question type -> named strategy.
var strategyMap = map[QuestionType]string{
	DiseaseInfo:         "disease_centric",
	SymptomDiagnosis:    "symptom_centric",
	DrugInfo:            "drug_centric",
	DrugInteraction:     "drug_interaction",
	ExaminationAdvice:   "examination_centric",
	TreatmentPlan:       "multi_entity",
	GeneralConsultation: "general",
}

type strategyConfig struct {
	priority   []domain.EntityType
	depth      int
	maxResults int
}

var strategies = map[string]strategyConfig{
	"disease_centric": {
		priority:   []domain.EntityType{domain.EntityDisease, domain.EntitySymptom, domain.EntityDrug, domain.EntityExamination},
		depth:      2, maxResults: 10,
	},
	"symptom_centric": {
		priority:   []domain.EntityType{domain.EntitySymptom, domain.EntityDisease, domain.EntityExamination},
		depth:      2, maxResults: 15,
	},
	"drug_centric": {
		priority:   []domain.EntityType{domain.EntityDrug, domain.EntityDisease},
		depth:      1, maxResults: 10,
	},
	"drug_interaction": {
		priority:   []domain.EntityType{domain.EntityDrug},
		depth:      1, maxResults: 20,
	},
	"examination_centric": {
		priority:   []domain.EntityType{domain.EntityExamination, domain.EntityDisease},
		depth:      1, maxResults: 10,
	},
	"multi_entity": {
		priority:   []domain.EntityType{domain.EntityDisease, domain.EntitySymptom, domain.EntityDrug, domain.EntityExamination},
		depth:      3, maxResults: 20,
	},
	"general": {
		priority:   []domain.EntityType{domain.EntityDisease, domain.EntitySymptom, domain.EntityDrug, domain.EntityExamination},
		depth:      2, maxResults: 10,
	},
}

// Entities groups recognized entities by category, as produced by C8.
type Entities struct {
	Diseases     []string
	Symptoms     []string
	Drugs        []string
	Examinations []string
}

func (e Entities) count() int {
	return len(e.Diseases) + len(e.Symptoms) + len(e.Drugs) + len(e.Examinations)
}

// Selector classifies queries and resolves them to a domain.QueryPlan.
type Selector struct{}

func NewSelector() *Selector { return &Selector{} }

// Classify scores the query against every question type's patterns,
// adjusts by detected entities, and resolves the named strategy.
func (s *Selector) Classify(query string, entities Entities) domain.QueryPlan {
	qtype := classifyByPattern(query)
	qtype = adjustByEntities(qtype, entities)
	name := strategyMap[qtype]
	if name == "" {
		name = "general"
	}
	cfg := strategies[name]

	return domain.QueryPlan{
		QuestionType:   string(qtype),
		StrategyName:   name,
		EntityPriority: cfg.priority,
		Depth:          cfg.depth,
		MaxResults:     cfg.maxResults,
		Confidence:     confidence(query, qtype, entities),
	}
}

func classifyByPattern(query string) QuestionType {
	var best QuestionType = GeneralConsultation
	bestScore := 0
	for qtype, res := range patterns {
		score := 0
		for _, re := range res {
			if re.MatchString(query) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = qtype
		}
	}
	if bestScore == 0 {
		return GeneralConsultation
	}
	return best
}

func adjustByEntities(qtype QuestionType, e Entities) QuestionType {
	if qtype != GeneralConsultation {
		return qtype
	}
	if len(e.Symptoms) > 0 && len(e.Diseases) == 0 {
		return SymptomDiagnosis
	}
	if len(e.Drugs) > 0 {
		return DrugInfo
	}
	if len(e.Diseases) > 0 {
		return DiseaseInfo
	}
	return qtype
}

func confidence(query string, qtype QuestionType, e Entities) float64 {
	conf := 0.5
	matches := 0
	for _, re := range patterns[qtype] {
		if re.MatchString(query) {
			matches++
		}
	}
	if matches > 0 {
		bonus := float64(matches) * 0.1
		if bonus > 0.3 {
			bonus = 0.3
		}
		conf += bonus
	}
	if n := e.count(); n > 0 {
		bonus := float64(n) * 0.05
		if bonus > 0.2 {
			bonus = 0.2
		}
		conf += bonus
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
