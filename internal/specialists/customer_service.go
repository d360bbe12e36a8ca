package specialists

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"singularityio/internal/llm"
)

// CustomerServiceAgent handles FAQs, usage guidance, and feedback intake.
// Grounded on agents/customer_service_agent.py.
type CustomerServiceAgent struct {
	llmClient *llm.Client
	rag       *RAGTool
	faq       map[string]string
}

func NewCustomerServiceAgent(llmClient *llm.Client, rag *RAGTool) *CustomerServiceAgent {
	return &CustomerServiceAgent{
		llmClient: llmClient,
		rag:       rag,
		faq: map[string]string{
			"如何使用系统": "您可以通过对话界面与AI医生进行咨询，也可以使用知识库搜索功能查找医疗信息。",
			"系统功能":   "本系统提供医疗咨询、健康管理、知识库查询等功能。",
			"数据安全":   "我们严格遵守数据保护法规，所有用户数据都经过加密处理。",
			"如何联系":   "您可以通过系统内的反馈功能联系我们。",
		},
	}
}

func (a *CustomerServiceAgent) Name() string { return "customer_service" }

func (a *CustomerServiceAgent) Process(ctx context.Context, req Request) Result {
	if req.Type == "feedback" {
		return a.handleFeedback(ctx, req)
	}
	return a.handleInquiry(ctx, req)
}

func (a *CustomerServiceAgent) handleInquiry(ctx context.Context, req Request) Result {
	if req.Type == "faq" || req.Type == "" {
		lower := strings.ToLower(req.Question)
		for key, answer := range a.faq {
			if strings.Contains(lower, strings.ToLower(key)) {
				return Result{Answer: answer, ToolsUsed: []string{"static_faq"}}
			}
		}
	}

	var tools []string
	var ragContext string
	var sources []string
	if a.rag != nil {
		if sr, err := a.rag.Search(ctx, req.Question, 3); err == nil && len(sr.Results) > 0 {
			ragContext = sr.Context
			sources = sr.Sources
			tools = append(tools, "rag_search")
		}
	}

	fullContext := historyText(req.History) + ragContext
	prompt := formatCustomerServicePrompt(req.Question, fullContext)
	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: customerServiceSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("customer_service_generate_failed")
		answer = "处理请求时发生错误，请稍后重试。"
	}
	return Result{Answer: answer, Sources: sources, ToolsUsed: tools}
}

func (a *CustomerServiceAgent) handleFeedback(ctx context.Context, req Request) Result {
	prompt := fmt.Sprintf(`%s
用户反馈：

反馈内容：%s
反馈数据：%v

请确认收到反馈，并表示感谢。`, historyText(req.History), req.Question, req.FeedbackData)

	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: customerServiceSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("customer_service_feedback_generate_failed")
		answer = "感谢您的反馈，我们已收到。"
	}
	return Result{Answer: answer}
}
