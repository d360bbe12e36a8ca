package specialists

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"singularityio/internal/llm"
)

const operationsSystem = `你是一位专业的运营分析AI。你的职责是：
1. 分析咨询数据和系统使用情况
2. 监控系统性能指标
3. 提供知识库优化建议
4. 生成运营报告
5. 识别系统改进机会`

// OperationsAgent covers data analysis, system monitoring, and
// optimization/report generation. Grounded on agents/operations_agent.py.
type OperationsAgent struct {
	llmClient *llm.Client
}

func NewOperationsAgent(llmClient *llm.Client) *OperationsAgent {
	return &OperationsAgent{llmClient: llmClient}
}

func (a *OperationsAgent) Name() string { return "operations" }

func (a *OperationsAgent) Process(ctx context.Context, req Request) Result {
	switch req.Type {
	case "monitoring":
		return a.generate(ctx, fmt.Sprintf("请分析以下系统监控指标：\n\n%v\n\n请提供：\n1. 系统健康状态评估\n2. 性能指标分析\n3. 潜在问题识别\n4. 优化建议", req.Metrics))
	case "optimization":
		return a.generate(ctx, fmt.Sprintf("基于以下上下文，提供知识库和系统优化建议：\n\n%v\n\n请提供：\n1. 知识库内容优化建议\n2. 检索效果改进方案\n3. Agent性能优化建议\n4. 用户体验改进建议", req.UserProfile))
	case "analysis":
		return a.generate(ctx, fmt.Sprintf("请分析以下运营数据：\n\n%v\n\n请提供：\n1. 关键指标总结\n2. 趋势分析\n3. 异常情况识别\n4. 改进建议", req.OperationsData))
	default:
		return a.generate(ctx, fmt.Sprintf("请生成运营报告：\n\n%v\n\n报告应包括：\n1. 数据概览\n2. 关键指标\n3. 趋势分析\n4. 问题与建议", req.OperationsData))
	}
}

func (a *OperationsAgent) generate(ctx context.Context, prompt string) Result {
	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: operationsSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("operations_generate_failed")
		answer = "处理请求时发生错误，请稍后重试。"
	}
	return Result{Answer: answer}
}
