// Package kg implements the knowledge-graph retrieval path (C10):
// extract entities, pick a strategy, query Neo4j along that strategy's
// priority order, dedup by text, score and sort. Grounded on
// knowledge/rag/kg_retriever.py.
package kg

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"singularityio/internal/domain"
	"singularityio/internal/nlp/entity"
	"singularityio/internal/nlp/strategy"
	"singularityio/internal/store/graph"
)

// Retriever is the C10 entry point wired into multi-path fusion.
type Retriever struct {
	graph      *graph.Client
	recognizer *entity.Recognizer
	selector   *strategy.Selector
	scorer     *Scorer
}

func NewRetriever(g *graph.Client, rec *entity.Recognizer, sel *strategy.Selector) *Retriever {
	return &Retriever{graph: g, recognizer: rec, selector: sel, scorer: NewScorer()}
}

// Retrieve returns scored KG hits for query, or nil if no graph client is
// configured — this is an expected degraded state, not a fault, per §8's
// "no evidence" rule for the KG path.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	if r.graph == nil {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	ents := r.recognizer.ExtractWithKGValidation(ctx, query)
	plan := r.selector.Classify(query, ents)

	all := r.executeStrategy(ctx, ents, plan)
	unique := dedupeByText(all)
	scored := r.scorer.ScoreAndSort(unique, query, ents, plan.QuestionType)

	if len(scored) > topK {
		scored = scored[:topK]
	}

	out := make([]domain.RetrievalResult, 0, len(scored))
	for _, s := range scored {
		out = append(out, domain.RetrievalResult{
			Chunk:      domain.Chunk{Body: s.Text},
			SourceTag:  s.Source,
			Method:     domain.MethodKG,
			RawScore:   s.Score,
			FinalScore: s.Score,
		})
	}
	return out, nil
}

func (r *Retriever) executeStrategy(ctx context.Context, ents strategy.Entities, plan domain.QueryPlan) []Candidate {
	var all []Candidate
	priority := plan.EntityPriority
	if len(priority) == 0 {
		return all
	}
	perTypeLimit := plan.MaxResults / len(priority)
	if perTypeLimit <= 0 {
		perTypeLimit = 1
	}

	for _, et := range priority {
		names := namesFor(ents, et)
		if len(names) > perTypeLimit {
			names = names[:perTypeLimit]
		}
		for _, name := range names {
			switch et {
			case domain.EntityDisease:
				all = append(all, r.retrieveDisease(ctx, name)...)
			case domain.EntitySymptom:
				all = append(all, r.retrieveSymptom(ctx, name)...)
			case domain.EntityDrug:
				all = append(all, r.retrieveDrug(ctx, name, plan.QuestionType)...)
			case domain.EntityExamination:
				all = append(all, r.retrieveExamination(ctx, name)...)
			}
		}
	}
	return all
}

func namesFor(e strategy.Entities, et domain.EntityType) []string {
	switch et {
	case domain.EntityDisease:
		return e.Diseases
	case domain.EntitySymptom:
		return e.Symptoms
	case domain.EntityDrug:
		return e.Drugs
	case domain.EntityExamination:
		return e.Examinations
	}
	return nil
}

func (r *Retriever) retrieveDisease(ctx context.Context, name string) []Candidate {
	info, err := r.graph.QueryDiseaseInfo(ctx, name, 20)
	if err != nil {
		log.Debug().Err(err).Str("disease", name).Msg("kg_disease_lookup_failed")
		return nil
	}
	var parts []string
	parts = append(parts, fmt.Sprintf("疾病：%s", name))
	if len(info.Symptoms) > 0 {
		parts = append(parts, fmt.Sprintf("症状：%s", joinField(info.Symptoms, "symptom")))
	}
	if len(info.Drugs) > 0 {
		parts = append(parts, fmt.Sprintf("治疗药物：%s", joinField(info.Drugs, "drug")))
	}
	if len(info.Examinations) > 0 {
		parts = append(parts, fmt.Sprintf("检查项目：%s", joinField(info.Examinations, "examination")))
	}
	return []Candidate{{
		Text:         strings.Join(parts, "\n"),
		Source:       "knowledge_graph",
		EntityType:   domain.EntityDisease,
		EntityName:   name,
		SymptomCount: len(info.Symptoms),
		DrugCount:    len(info.Drugs),
		ExamCount:    len(info.Examinations),
	}}
}

func (r *Retriever) retrieveSymptom(ctx context.Context, name string) []Candidate {
	rows, err := r.graph.Run(ctx, graph.Queries.DiseasesBySymptoms, map[string]any{"names": []string{name}, "minMatches": 1, "limit": 10})
	if err != nil || len(rows) == 0 {
		return nil
	}
	diseases := joinField(rows, "disease")
	return []Candidate{{
		Text:         fmt.Sprintf("症状：%s\n可能相关疾病：%s", name, diseases),
		Source:       "knowledge_graph",
		EntityType:   domain.EntitySymptom,
		EntityName:   name,
		DiseaseCount: len(rows),
	}}
}

func (r *Retriever) retrieveDrug(ctx context.Context, name, questionType string) []Candidate {
	if questionType == "drug_interaction" {
		rows, err := r.graph.Run(ctx, graph.Queries.DrugInteractions, map[string]any{"name": name, "limit": 10})
		if err != nil || len(rows) == 0 {
			return nil
		}
		var lines []string
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("- %v: %v", row["interacting_drug"], row["description"]))
		}
		return []Candidate{{
			Text:       fmt.Sprintf("药物：%s\n相互作用：\n%s", name, strings.Join(lines, "\n")),
			Source:     "knowledge_graph",
			EntityType: domain.EntityDrug,
			EntityName: name,
			DrugCount:  len(rows),
		}}
	}
	rows, err := r.graph.Run(ctx, graph.Queries.DiseasesTreatedByDrug, map[string]any{"name": name, "limit": 10})
	if err != nil {
		return nil
	}
	diseases := "无"
	if len(rows) > 0 {
		diseases = joinField(rows, "disease")
	}
	return []Candidate{{
		Text:         fmt.Sprintf("药物：%s\n适用疾病：%s", name, diseases),
		Source:       "knowledge_graph",
		EntityType:   domain.EntityDrug,
		EntityName:   name,
		DiseaseCount: len(rows),
	}}
}

func (r *Retriever) retrieveExamination(ctx context.Context, name string) []Candidate {
	rows, err := r.graph.Run(ctx, graph.Queries.DiseasesRequiringExam, map[string]any{"name": name, "limit": 10})
	if err != nil {
		return nil
	}
	diseases := "无"
	if len(rows) > 0 {
		diseases = joinField(rows, "disease")
	}
	return []Candidate{{
		Text:         fmt.Sprintf("检查项目：%s\n适用疾病：%s", name, diseases),
		Source:       "knowledge_graph",
		EntityType:   domain.EntityExamination,
		EntityName:   name,
		DiseaseCount: len(rows),
	}}
}

func joinField(rows []graph.Record, field string) string {
	vals := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r[field]; ok {
			vals = append(vals, fmt.Sprintf("%v", v))
		}
	}
	return strings.Join(vals, ", ")
}

func dedupeByText(cands []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Text == "" {
			continue
		}
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		out = append(out, c)
	}
	return out
}
