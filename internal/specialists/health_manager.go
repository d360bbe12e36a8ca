package specialists

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"singularityio/internal/llm"
	"singularityio/internal/nlp/entity"
)

// HealthManagerAgent handles health-plan creation, chronic-condition
// tracking, and general health-management consultation. Grounded on
// agents/health_manager_agent.py.
type HealthManagerAgent struct {
	llmClient *llm.Client
	rag       *RAGTool
	kgTool    *KGTool
	recognizer *entity.Recognizer
}

func NewHealthManagerAgent(llmClient *llm.Client, rag *RAGTool, kgTool *KGTool, recognizer *entity.Recognizer) *HealthManagerAgent {
	return &HealthManagerAgent{llmClient: llmClient, rag: rag, kgTool: kgTool, recognizer: recognizer}
}

func (a *HealthManagerAgent) Name() string { return "health_manager" }

func (a *HealthManagerAgent) Process(ctx context.Context, req Request) Result {
	switch req.Type {
	case "plan":
		return a.createPlan(ctx, req)
	case "tracking":
		return a.tracking(ctx, req)
	default:
		return a.general(ctx, req)
	}
}

func (a *HealthManagerAgent) kgEnrichment(ctx context.Context, text string) string {
	if a.kgTool == nil || a.recognizer == nil {
		return ""
	}
	ents := ExtractEntities(ctx, a.recognizer, text)
	var out string
	for _, disease := range ents.Diseases {
		if info, ok := a.kgTool.DiseaseInfo(ctx, disease); ok {
			out += info + "\n\n"
		}
	}
	return out
}

func (a *HealthManagerAgent) general(ctx context.Context, req Request) Result {
	var tools []string
	var ragContext string
	var sources []string
	if a.rag != nil {
		if sr, err := a.rag.Search(ctx, req.Question, 3); err == nil {
			ragContext = sr.Context
			sources = sr.Sources
			if len(sr.Results) > 0 {
				tools = append(tools, "rag_search")
			}
		}
	}

	kgContext := a.kgEnrichment(ctx, req.Question)
	if kgContext != "" {
		tools = append(tools, "knowledge_graph_query")
	}

	combined := ""
	if ragContext != "" {
		combined += "【相关文档】\n" + ragContext + "\n"
	}
	if kgContext != "" {
		combined += "\n【知识图谱信息】\n" + kgContext + "\n"
	}
	fullContext := historyText(req.History) + combined

	prompt := fmt.Sprintf("基于以下健康管理信息，回答用户的问题：\n\n%s\n\n用户问题：%s\n\n请提供专业、实用的健康管理建议。", fullContext, req.Question)
	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: healthManagerSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("health_manager_general_generate_failed")
		answer = "处理请求时发生错误，请稍后重试。"
	}
	return Result{Answer: answer, Sources: sources, ToolsUsed: tools}
}

func (a *HealthManagerAgent) createPlan(ctx context.Context, req Request) Result {
	var tools []string
	var ragContext string
	var sources []string
	if a.rag != nil {
		if sr, err := a.rag.Search(ctx, "健康管理计划 "+req.Question, 5); err == nil {
			ragContext = sr.Context
			sources = sr.Sources
			if len(sr.Results) > 0 {
				tools = append(tools, "rag_search")
			}
		}
	}

	kgContext := a.kgEnrichment(ctx, fmt.Sprintf("%s %v", req.Question, req.UserProfile))
	if kgContext != "" {
		tools = append(tools, "knowledge_graph_query")
	}

	combined := ""
	if ragContext != "" {
		combined += "【参考指南】\n" + ragContext + "\n"
	}
	if kgContext != "" {
		combined += "\n【疾病知识】\n" + kgContext + "\n"
	}
	fullContext := historyText(req.History) + combined

	prompt := formatHealthPlanPrompt(req.Question, req.UserProfile, fullContext)
	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: healthManagerSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("health_manager_plan_generate_failed")
		answer = "处理请求时发生错误，请稍后重试。"
	}
	return Result{Answer: answer, Sources: sources, ToolsUsed: tools}
}

func (a *HealthManagerAgent) tracking(ctx context.Context, req Request) Result {
	prompt := fmt.Sprintf(`%s
用户健康数据追踪咨询：

用户问题：%s
用户信息：%v

请提供健康数据追踪建议，包括：
1. 需要追踪的指标
2. 追踪频率
3. 数据记录方法
4. 异常情况处理`, historyText(req.History), req.Question, req.UserProfile)

	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: healthManagerSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("health_manager_tracking_generate_failed")
		answer = "处理请求时发生错误，请稍后重试。"
	}
	return Result{Answer: answer}
}
