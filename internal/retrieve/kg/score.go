package kg

import (
	"math"
	"strings"

	"singularityio/internal/domain"
	"singularityio/internal/nlp/strategy"
)

// relevance weights per §4: entity_match 0.4, query_similarity 0.3,
// relationship_strength 0.2, completeness 0.1.
const (
	weightEntityMatch      = 0.4
	weightQuerySimilarity  = 0.3
	weightRelationStrength = 0.2
	weightCompleteness     = 0.1
)

// Candidate is a pre-scoring KG hit: free text plus the counts used by
// relationship-strength and completeness scoring.
type Candidate struct {
	Text         string
	Source       string
	EntityType   domain.EntityType
	EntityName   string
	SymptomCount int
	DrugCount    int
	ExamCount    int
	DiseaseCount int
}

// Scorer ranks KG candidates the way relevance_scorer.py does: a weighted
// blend of entity overlap, query-term Jaccard similarity, log-scaled
// relationship density, and a simple completeness heuristic.
type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

type Scored struct {
	Candidate
	Score float64
}

func (s *Scorer) ScoreAndSort(candidates []Candidate, query string, entities strategy.Entities, questionType string) []Scored {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		out[i] = Scored{Candidate: c, Score: s.score(c, query, entities, questionType)}
	}
	sortByScoreDesc(out)
	return out
}

func (s *Scorer) score(c Candidate, query string, entities strategy.Entities, questionType string) float64 {
	score := entityMatch(c, entities)*weightEntityMatch +
		querySimilarity(c.Text, query)*weightQuerySimilarity +
		relationshipStrength(c, questionType)*weightRelationStrength +
		completeness(c)*weightCompleteness
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func entityMatch(c Candidate, e strategy.Entities) float64 {
	total := len(e.Diseases) + len(e.Symptoms) + len(e.Drugs) + len(e.Examinations)
	if total == 0 {
		return 0.5
	}
	text := strings.ToLower(c.Text)
	matched := 0
	count := func(names []string) {
		for _, n := range names {
			if n == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(n)) || c.EntityName == n {
				matched++
			}
		}
	}
	count(e.Diseases)
	count(e.Symptoms)
	count(e.Drugs)
	count(e.Examinations)
	return float64(matched) / float64(total)
}

func querySimilarity(text, query string) float64 {
	qWords := toSet(strings.Fields(strings.ToLower(query)))
	tWords := toSet(strings.Fields(strings.ToLower(text)))
	if len(qWords) == 0 || len(tWords) == 0 {
		return 0
	}
	inter, union := 0, len(qWords)
	for w := range tWords {
		if _, ok := qWords[w]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	jaccard := float64(inter) / float64(union)
	lengthPenalty := math.Min(float64(len(text))/100, 1.0)
	return jaccard * lengthPenalty
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var typeWeights = map[string]map[string]float64{
	"disease_info":      {"symptoms": 0.3, "drugs": 0.3, "exams": 0.2},
	"symptom_diagnosis":  {"diseases": 0.5, "exams": 0.3},
	"drug_info":          {"diseases": 0.5},
	"treatment_plan":     {"symptoms": 0.2, "drugs": 0.4, "exams": 0.2},
}

var defaultTypeWeights = map[string]float64{"symptoms": 0.25, "drugs": 0.25, "exams": 0.25, "diseases": 0.25}

func relationshipStrength(c Candidate, questionType string) float64 {
	weights, ok := typeWeights[questionType]
	if !ok {
		weights = defaultTypeWeights
	}
	counts := map[string]int{"symptoms": c.SymptomCount, "drugs": c.DrugCount, "exams": c.ExamCount, "diseases": c.DiseaseCount}
	score := 0.0
	for key, weight := range weights {
		normalized := math.Min(math.Log(float64(counts[key])+1)/math.Log(10), 1.0)
		score += normalized * weight
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func completeness(c Candidate) float64 {
	score := 0.0
	if len(c.Text) > 20 {
		score += 0.3
	}
	if c.EntityName != "" || c.EntityType != "" {
		score += 0.2
	}
	nonZero := 0
	for _, n := range []int{c.SymptomCount, c.DrugCount, c.ExamCount, c.DiseaseCount} {
		if n > 0 {
			nonZero++
		}
	}
	switch {
	case nonZero >= 2:
		score += 0.3
	case nonZero == 1:
		score += 0.2
	}
	if c.Source != "" {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func sortByScoreDesc(s []Scored) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Score > s[j-1].Score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
