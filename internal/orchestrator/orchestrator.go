// Package orchestrator implements the agent state machine: start →
// classify_intent → route → {doctor|health_manager|customer_service|ops}
// → (doctor only) risk_assess → finalize. Grounded on
// agents/orchestrator.py's LangGraph StateGraph, reshaped into an
// explicit Go state machine since this module has no LangGraph
// equivalent — the node/edge graph and routing rules are preserved
// exactly, only the graph-execution engine changes.
package orchestrator

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"singularityio/internal/specialists"
)

// Intent names the routing bucket an inbound message lands in, matching
// orchestrator.py's rule-based fallback classifier (the ML intent
// classifier it prefers loads a pickled SVM model this module has no
// artifact for, so the rule-based path is the only one carried over —
// see DESIGN.md).
type Intent string

const (
	IntentDoctor          Intent = "doctor"
	IntentHealthManager   Intent = "health_manager"
	IntentCustomerService Intent = "customer_service"
	IntentOperations      Intent = "operations"
)

// intentOrder is the fixed doctor/health_manager/customer_service/operations
// scan order the reference builds intent_scores in. Python's max(intent_scores,
// key=intent_scores.get) keeps the first-seen maximum, so an all-zero tie
// (no keyword anywhere matches) resolves to the first entry, doctor — this
// order must be iterated as a slice, not a map, to reproduce that tie-break.
var intentOrder = []struct {
	intent   Intent
	keywords []string
}{
	{IntentDoctor, []string{"症状", "诊断", "疾病", "用药", "检查", "治疗", "病"}},
	{IntentHealthManager, []string{"健康", "管理", "计划", "生活方式", "慢病", "追踪"}},
	{IntentCustomerService, []string{"如何使用", "功能", "帮助", "问题", "反馈"}},
	{IntentOperations, []string{"数据", "分析", "报告", "监控", "优化"}},
}

// ClassifyIntent scores each intent's keyword matches and returns the
// winner, plus a confidence value fixed at the reference's rule-path
// default of 0.7. Ties (including the all-zero no-match case) resolve to
// the first-scanned intent, doctor, matching Python's max() semantics.
func ClassifyIntent(text string) (Intent, float64) {
	lower := strings.ToLower(text)
	best := intentOrder[0].intent
	bestScore := -1
	for _, entry := range intentOrder {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = entry.intent
		}
	}
	return best, 0.7
}

// Specialist is the interface every agent node implements.
type Specialist interface {
	Process(ctx context.Context, req specialists.Request) specialists.Result
}

// Orchestrator wires the four specialists behind the fixed routing graph.
type Orchestrator struct {
	doctor          Specialist
	healthManager   Specialist
	customerService Specialist
	operations      Specialist
}

func New(doctor, healthManager, customerService, operations Specialist) *Orchestrator {
	return &Orchestrator{
		doctor:          doctor,
		healthManager:   healthManager,
		customerService: customerService,
		operations:      operations,
	}
}

// Response is the finalized result the caller sees, with the routing
// metadata orchestrator.py's AgentState carries alongside the agent's own
// Result.
type Response struct {
	Intent           Intent
	IntentConfidence float64
	Result           specialists.Result
}

// Process runs one full pass through the state machine for a single user
// message: classify → route → (risk_assess if doctor) → finalize.
func (o *Orchestrator) Process(ctx context.Context, userInput string, req specialists.Request) Response {
	intent, confidence := ClassifyIntent(userInput)
	req.Question = userInput

	var result specialists.Result
	switch intent {
	case IntentDoctor:
		if req.Type == "" {
			req.Type = doctorConsultationType(userInput)
		}
		result = o.doctor.Process(ctx, req)
		result = assessRisk(result)
	case IntentHealthManager:
		if req.Type == "" {
			req.Type = healthManagerRequestType(userInput)
		}
		result = o.healthManager.Process(ctx, req)
	case IntentCustomerService:
		if req.Type == "" {
			req.Type = customerServiceRequestType(userInput)
		}
		result = o.customerService.Process(ctx, req)
	case IntentOperations:
		result = o.operations.Process(ctx, req)
	}

	o.recordOperations(ctx, intent, userInput)

	return Response{Intent: intent, IntentConfidence: confidence, Result: result}
}

func doctorConsultationType(text string) string {
	switch {
	case containsAny(text, "症状", "诊断", "可能"):
		return "diagnosis"
	case containsAny(text, "用药", "药物", "药"):
		return "drug"
	default:
		return "general"
	}
}

func healthManagerRequestType(text string) string {
	switch {
	case containsAny(text, "计划", "制定"):
		return "plan"
	case containsAny(text, "追踪", "记录", "数据"):
		return "tracking"
	default:
		return "general"
	}
}

func customerServiceRequestType(text string) string {
	switch {
	case containsAny(text, "指导", "如何", "怎么"):
		return "guidance"
	case containsAny(text, "反馈", "建议", "意见"):
		return "feedback"
	default:
		return "faq"
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// assessRisk is the risk_assessment node: doctor-path-only, appends the
// emergency advisory when risk is high/critical, matching
// orchestrator.py's _assess_risk exactly (including the emoji marker).
func assessRisk(result specialists.Result) specialists.Result {
	if result.RiskLevel == specialists.RiskHigh || result.RiskLevel == specialists.RiskCritical {
		result.Answer += "\n\n⚠️ 重要提示：建议立即就医或拨打急救电话。"
	}
	return result
}

// recordOperations is the finalize node's best-effort operations log,
// matching orchestrator.py's _finalize_response call into the operations
// agent — failures are logged and otherwise ignored, never surfaced to
// the user.
func (o *Orchestrator) recordOperations(ctx context.Context, intent Intent, userInput string) {
	if o.operations == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("operations_record_failed")
		}
	}()
	o.operations.Process(ctx, specialists.Request{
		Type: "analysis",
		OperationsData: map[string]any{
			"agent_type": string(intent),
			"user_input": userInput,
		},
	})
}
