// Package entity extracts medical entities from a consultation query (C8):
// an LLM-driven NER pass with a JSON response contract, a regex fallback
// when the LLM is unavailable or returns unparseable output, and optional
// knowledge-graph validation of the extracted names. Grounded on
// knowledge/ml/entity_recognizer.py.
package entity

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"singularityio/internal/llm"
	"singularityio/internal/nlp/strategy"
	"singularityio/internal/store/graph"
)

const nerSystemPrompt = "你是一个专业的医疗实体识别助手，擅长从医疗相关文本中准确提取实体。"

type rawEntities struct {
	Diseases     []string `json:"diseases"`
	Symptoms     []string `json:"symptoms"`
	Drugs        []string `json:"drugs"`
	Examinations []string `json:"examinations"`
	Departments  []string `json:"departments"`
}

// Recognizer extracts entities with an LLM, caching by query text, and
// falls back to pattern matching when the LLM path fails.
type Recognizer struct {
	llmClient *llm.Client
	graph     *graph.Client

	mu    sync.Mutex
	cache map[string]strategy.Entities
}

func NewRecognizer(llmClient *llm.Client, graphClient *graph.Client) *Recognizer {
	return &Recognizer{llmClient: llmClient, graph: graphClient, cache: make(map[string]strategy.Entities)}
}

// Extract returns entities for a query, using the LLM path first and the
// regex fallback if the LLM call or JSON parse fails.
func (r *Recognizer) Extract(ctx context.Context, query string) strategy.Entities {
	r.mu.Lock()
	if cached, ok := r.cache[query]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	ents := r.extractWithLLM(ctx, query)

	r.mu.Lock()
	r.cache[query] = ents
	r.mu.Unlock()
	return ents
}

// ExtractWithKGValidation extracts then keeps only entities the graph
// confirms exist (CONTAINS match), matching extract_with_kg_validation.
// Falls back to the unvalidated extraction if no graph client is wired.
func (r *Recognizer) ExtractWithKGValidation(ctx context.Context, query string) strategy.Entities {
	ents := r.Extract(ctx, query)
	if r.graph == nil {
		return ents
	}
	return strategy.Entities{
		Diseases:     r.validate(ctx, "Disease", ents.Diseases),
		Symptoms:     r.validate(ctx, "Symptom", ents.Symptoms),
		Drugs:        r.validate(ctx, "Drug", ents.Drugs),
		Examinations: r.validate(ctx, "Examination", ents.Examinations),
	}
}

func (r *Recognizer) validate(ctx context.Context, label string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		rows, err := r.graph.Run(ctx, graph.Queries.EntityExists, map[string]any{"label": label, "name": name})
		if err != nil {
			log.Debug().Err(err).Str("entity", name).Msg("kg_validation_failed")
			continue
		}
		if len(rows) > 0 {
			out = append(out, name)
		}
	}
	return out
}

func (r *Recognizer) extractWithLLM(ctx context.Context, query string) strategy.Entities {
	if r.llmClient == nil {
		return fallbackExtraction(query)
	}
	prompt := buildNERPrompt(query)
	response, _, err := r.llmClient.Generate(ctx, prompt, llm.GenerateOptions{
		SystemPrompt: nerSystemPrompt,
		Temperature:  0.1,
		MaxTokens:    500,
	})
	if err != nil {
		log.Warn().Err(err).Msg("ner_llm_failed_using_fallback")
		return fallbackExtraction(query)
	}
	ents, ok := parseLLMResponse(response)
	if !ok {
		return fallbackExtraction(query)
	}
	return ents
}

func buildNERPrompt(query string) string {
	var b strings.Builder
	b.WriteString("请从以下医疗咨询问题中提取所有医疗相关实体，并按类型分类。\n\n问题：")
	b.WriteString(query)
	b.WriteString(`

请以JSON格式返回，格式如下：
{
    "diseases": ["疾病名称1", "疾病名称2"],
    "symptoms": ["症状名称1", "症状名称2"],
    "drugs": ["药物名称1", "药物名称2"],
    "examinations": ["检查项目1", "检查项目2"],
    "departments": ["科室名称1", "科室名称2"]
}

要求：
1. 只提取明确提到的实体，不要推测
2. 实体名称要完整准确
3. 如果某个类型没有实体，返回空数组
4. 只返回JSON，不要其他文字

JSON:`)
	return b.String()
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func parseLLMResponse(response string) (strategy.Entities, bool) {
	match := jsonObjectRe.FindString(response)
	if match == "" {
		return strategy.Entities{}, false
	}
	var raw rawEntities
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return strategy.Entities{}, false
	}
	return strategy.Entities{
		Diseases:     dedupNonEmpty(raw.Diseases),
		Symptoms:     dedupNonEmpty(raw.Symptoms),
		Drugs:        dedupNonEmpty(raw.Drugs),
		Examinations: dedupNonEmpty(raw.Examinations),
	}, true
}

func dedupNonEmpty(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var (
	diseasePatterns = compileAll(`[\p{Han}]+(?:病|症|炎|癌|瘤|症候群)`, `高血压|糖尿病|心脏病|癌症|肿瘤|感冒|发烧`)
	symptomPatterns = compileAll(`[\p{Han}]*(?:痛|疼|热|烧|咳|吐|泻|晕|乏|累)`, `头痛|发热|咳嗽|疼痛|乏力|头晕|恶心|呕吐`)
	drugPatterns    = compileAll(`[\p{Han}]+(?:药|片|胶囊|注射液|颗粒)`, `阿司匹林|布洛芬|青霉素|头孢`)
	examPatterns    = compileAll(`[\p{Han}]*(?:检查|化验|检测|CT|MRI|X光|B超)`, `血常规|尿常规|心电图|CT|MRI`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// fallbackExtraction matches the reference's keyword-pattern fallback used
// when the LLM path is unavailable.
func fallbackExtraction(query string) strategy.Entities {
	return strategy.Entities{
		Diseases:     dedupNonEmpty(matchAll(diseasePatterns, query)),
		Symptoms:     dedupNonEmpty(matchAll(symptomPatterns, query)),
		Drugs:        dedupNonEmpty(matchAll(drugPatterns, query)),
		Examinations: dedupNonEmpty(matchAll(examPatterns, query)),
	}
}

func matchAll(patterns []*regexp.Regexp, text string) []string {
	var out []string
	for _, re := range patterns {
		out = append(out, re.FindAllString(text, -1)...)
	}
	return out
}
