package specialists

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"singularityio/internal/llm"
)

// DoctorAgent handles diagnosis, drug, and general medical consultations.
// Grounded on agents/doctor_agent.py.
type DoctorAgent struct {
	llmClient *llm.Client
	rag       *RAGTool
	kgTool    *KGTool
}

func NewDoctorAgent(llmClient *llm.Client, rag *RAGTool, kgTool *KGTool) *DoctorAgent {
	return &DoctorAgent{llmClient: llmClient, rag: rag, kgTool: kgTool}
}

func (a *DoctorAgent) Name() string { return "doctor" }

func (a *DoctorAgent) Process(ctx context.Context, req Request) Result {
	switch classifyConsultationType(req.Question) {
	case "diagnosis":
		return a.handleDiagnosis(ctx, req)
	case "drug":
		return a.handleDrug(ctx, req)
	default:
		return a.handleGeneral(ctx, req)
	}
}

func classifyConsultationType(question string) string {
	switch {
	case containsAny(question, "症状", "诊断", "可能"):
		return "diagnosis"
	case containsAny(question, "用药", "药物", "药"):
		return "drug"
	default:
		return "general"
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

func (a *DoctorAgent) handleGeneral(ctx context.Context, req Request) Result {
	var tools []string
	var ragContext string
	var sources []string
	if a.rag != nil {
		if sr, err := a.rag.Search(ctx, req.Question, 5); err == nil {
			ragContext = sr.Context
			sources = sr.Sources
			if len(sr.Results) > 0 {
				tools = append(tools, "rag_search")
			}
		}
	}

	prompt := formatMedicalPrompt(ragContext, req.Question)
	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: medicalConsultationSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("doctor_general_generate_failed")
		answer = "处理咨询时发生错误，请稍后重试。"
	}
	return Result{Answer: answer, Sources: sources, ToolsUsed: tools}
}

func (a *DoctorAgent) handleDiagnosis(ctx context.Context, req Request) Result {
	var tools []string
	diag := Triage(req.Question)
	tools = append(tools, "diagnosis_assistant")

	var kgContext string
	if a.kgTool != nil && len(diag.SymptomKeywords) > 0 {
		diseases, err := a.kgTool.DiseasesBySymptoms(ctx, diag.SymptomKeywords, 5)
		if err == nil && len(diseases) > 0 {
			tools = append(tools, "knowledge_graph_query")
			kgContext = "可能的疾病:\n- " + strings.Join(diseases, "\n- ") + "\n"
		}
	}

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

	fullContext := ragContext
	if kgContext != "" {
		fullContext = ragContext + "\n\n" + kgContext
	}

	prompt := formatDiagnosisPrompt(req.Question, fullContext)
	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: diagnosisAssistantSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("doctor_diagnosis_generate_failed")
		answer = "处理咨询时发生错误，请稍后重试。"
	}
	if diag.RiskLevel == RiskHigh || diag.RiskLevel == RiskCritical {
		answer += "\n\n⚠️ 风险提示: " + RiskRecommendation(diag.RiskLevel)
	}

	return Result{Answer: answer, RiskLevel: diag.RiskLevel, Diagnosis: &diag, Sources: sources, ToolsUsed: tools}
}

func (a *DoctorAgent) handleDrug(ctx context.Context, req Request) Result {
	var tools []string
	var kgContext, drugName string

	if containsAny(req.Question, "高血压", "降压") {
		drugName = "高血压药物"
	}

	if a.kgTool != nil && drugName != "" {
		if info, ok := a.kgTool.DrugInfo(ctx, drugName); ok {
			tools = append(tools, "knowledge_graph_query")
			kgContext = info.Format()
		}
	}

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

	fullContext := ragContext
	if kgContext != "" {
		fullContext = ragContext + "\n\n" + kgContext
	}

	prompt := formatDrugPrompt(req.Question, drugName, fullContext)
	answer, _, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: drugConsultationSystem, Temperature: 0.7})
	if err != nil {
		log.Warn().Err(err).Msg("doctor_drug_generate_failed")
		answer = "处理咨询时发生错误，请稍后重试。"
	}
	return Result{Answer: answer, Sources: sources, ToolsUsed: tools}
}
