package specialists

import "strings"

// RiskLevel mirrors diagnosis_tool.py's risk tiers.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var symptomKeywords = []string{
	"疼痛", "发热", "咳嗽", "呼吸困难", "胸痛", "腹痛",
	"头痛", "头晕", "恶心", "呕吐", "腹泻", "便秘",
	"乏力", "失眠", "心悸", "水肿", "皮疹", "出血",
}

var highRiskKeywords = []string{
	"胸痛", "呼吸困难", "意识不清", "大出血", "剧烈疼痛",
	"休克", "昏迷", "抽搐", "急性", "紧急",
}

var mediumRiskKeywords = []string{
	"持续发热", "持续疼痛", "反复", "加重", "恶化",
}

// DiagnosisResult is the triage output diagnosis_tool.py's execute()
// returns: the matched symptom keywords and the resulting risk tier.
type DiagnosisResult struct {
	SymptomKeywords              []string
	RiskLevel                    RiskLevel
	RequiresImmediateAttention bool
}

// Triage extracts symptom keywords from free text and assigns a risk tier
// by keyword match, exactly as diagnosis_tool.py's extract_symptoms/
// assess_risk_level do.
func Triage(text string) DiagnosisResult {
	found := matchKeywords(text, symptomKeywords)
	risk := assessRisk(text)
	return DiagnosisResult{
		SymptomKeywords:            found,
		RiskLevel:                  risk,
		RequiresImmediateAttention: risk == RiskHigh || risk == RiskCritical,
	}
}

func assessRisk(text string) RiskLevel {
	for _, kw := range highRiskKeywords {
		if strings.Contains(text, kw) {
			return RiskHigh
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(text, kw) {
			return RiskMedium
		}
	}
	return RiskLow
}

func matchKeywords(text string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// RiskRecommendation returns the user-facing advisory for a risk tier,
// matching diagnosis_tool.py's get_risk_recommendation.
func RiskRecommendation(level RiskLevel) string {
	switch level {
	case RiskHigh, RiskCritical:
		return "建议立即前往医院急诊科就诊，或拨打急救电话。"
	case RiskMedium:
		return "建议尽快前往医院就诊，进行详细检查。"
	default:
		return "建议观察症状变化，如持续或加重，请及时就医。"
	}
}
