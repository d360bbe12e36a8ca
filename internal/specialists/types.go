package specialists

// Request is the input an orchestrator node hands a specialist.
type Request struct {
	Question       string
	Type           string // per-specialist sub-type: diagnosis/drug/general, plan/tracking/general, faq/guidance/feedback, analysis/monitoring/...
	History        []HistoryTurn
	UserProfile    map[string]any
	FeedbackData   map[string]any
	OperationsData map[string]any
	Metrics        map[string]any
}

type HistoryTurn struct {
	Role    string
	Content string
}

// Result is what every specialist returns, folded into the orchestrator's
// final response.
type Result struct {
	Answer     string
	RiskLevel  RiskLevel
	Sources    []string
	ToolsUsed  []string
	Diagnosis  *DiagnosisResult
}

func historyText(turns []HistoryTurn) string {
	if len(turns) == 0 {
		return ""
	}
	out := "\n【对话历史】\n"
	for _, t := range turns {
		role := "AI助手"
		if t.Role == "user" {
			role = "用户"
		}
		content := t.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		out += role + ": " + content + "\n"
	}
	return out + "\n"
}
