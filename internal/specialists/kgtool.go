package specialists

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"singularityio/internal/store/graph"
	"singularityio/internal/store/kv"
)

// diseaseLookupTTL bounds how long a disease-by-symptoms answer is reused
// before the graph is queried again; symptom/disease edges change rarely
// enough that a short cache meaningfully cuts Neo4j round trips on the
// doctor agent's diagnosis path without risking stale triage.
const diseaseLookupTTL = 10 * time.Minute

// KGTool wraps direct, single-purpose graph lookups that an agent invokes
// by name instead of going through the generic retrieval strategy — the
// Go shape of knowledge_graph_tool.py's execute(action, **kwargs) dispatch.
// An optional kv.Store fronts the hottest lookup (disease-by-symptoms)
// with a short TTL cache; a nil or unreachable store degrades to an
// always-miss cache rather than failing the lookup.
type KGTool struct {
	graph *graph.Client
	cache *kv.Store
}

func NewKGTool(g *graph.Client, cache *kv.Store) *KGTool {
	return &KGTool{graph: g, cache: cache}
}

func (t *KGTool) Available() bool { return t != nil && t.graph != nil }

// DiseasesBySymptoms finds candidate diseases sharing at least one of the
// given symptoms, most-matched first.
func (t *KGTool) DiseasesBySymptoms(ctx context.Context, symptoms []string, limit int) ([]string, error) {
	if !t.Available() || len(symptoms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	cacheKey := diseaseLookupCacheKey(symptoms, limit)
	if cached, hit := t.cache.Get(ctx, cacheKey); hit {
		if cached == "" {
			return nil, nil
		}
		return strings.Split(cached, "\x1f"), nil
	}

	rows, err := t.graph.Run(ctx, graph.Queries.DiseasesBySymptoms, map[string]any{
		"names": symptoms, "minMatches": 1, "limit": limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r["disease"]; ok {
			out = append(out, fmt.Sprintf("%v", v))
		}
	}
	_ = t.cache.Set(ctx, cacheKey, strings.Join(out, "\x1f"), diseaseLookupTTL)
	return out, nil
}

func diseaseLookupCacheKey(symptoms []string, limit int) string {
	sorted := append([]string(nil), symptoms...)
	sort.Strings(sorted)
	return fmt.Sprintf("kg:diseases_by_symptoms:%d:%s", limit, strings.Join(sorted, ","))
}

// DrugInfo describes a drug and the diseases it is contraindicated for,
// formatted the way knowledge_graph_tool.py's get_drug_info response is
// rendered into agent context.
type DrugInfo struct {
	Name               string
	Contraindications  []string
}

func (t *KGTool) DrugInfo(ctx context.Context, name string) (DrugInfo, bool) {
	if !t.Available() {
		return DrugInfo{}, false
	}
	rows, err := t.graph.Run(ctx, graph.Queries.DrugContraindications, map[string]any{"name": name, "limit": 10})
	if err != nil || len(rows) == 0 {
		exists, err2 := t.graph.Run(ctx, graph.Queries.EntityExists, map[string]any{"label": "Drug", "name": name})
		if err2 != nil || len(exists) == 0 {
			return DrugInfo{}, false
		}
		return DrugInfo{Name: name}, true
	}
	contra := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r["disease"]; ok {
			contra = append(contra, fmt.Sprintf("%v", v))
		}
	}
	return DrugInfo{Name: name, Contraindications: contra}, true
}

func (d DrugInfo) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "药物信息: %s\n", d.Name)
	if len(d.Contraindications) > 0 {
		b.WriteString("禁忌症:\n")
		for _, c := range d.Contraindications {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}

// DiseaseInfo formats a graph disease lookup into agent-ready text,
// mirroring knowledge_graph_tool.py's format_disease_info.
func (t *KGTool) DiseaseInfo(ctx context.Context, name string) (string, bool) {
	if !t.Available() {
		return "", false
	}
	info, err := t.graph.QueryDiseaseInfo(ctx, name, 10)
	if err != nil || info.Disease == nil {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "疾病：%s\n", name)
	if len(info.Symptoms) > 0 {
		b.WriteString("症状：")
		for i, s := range info.Symptoms {
			if i > 0 {
				b.WriteString("、")
			}
			fmt.Fprintf(&b, "%v", s["symptom"])
		}
		b.WriteString("\n")
	}
	if len(info.Drugs) > 0 {
		b.WriteString("治疗药物：")
		for i, d := range info.Drugs {
			if i > 0 {
				b.WriteString("、")
			}
			fmt.Fprintf(&b, "%v", d["drug"])
		}
		b.WriteString("\n")
	}
	return b.String(), true
}
