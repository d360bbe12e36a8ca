package specialists

import "fmt"

// System prompts and formatters ported from services/llm_service.py's
// PromptTemplate class. healthManagerSystem/customerServiceSystem and
// their format* companions are referenced by the reference agents but
// were absent from PromptTemplate's own definition in the extracted
// source (an upstream gap, not a distillation drop) — written here in
// the same register as the sibling prompts that are defined.
const (
	medicalConsultationSystem = `你是一位专业的AI医疗助手。你的职责是：
1. 基于提供的医疗文献和知识图谱信息，为用户提供准确的医疗咨询
2. 所有回答必须标注数据来源
3. 对于不确定的信息，明确说明"暂无明确指南支持"
4. 禁止编造医疗建议
5. 对于高风险场景（如紧急病症、手术方案、药物剂量调整），必须提示用户前往医院就诊
6. 在回答结尾添加免责声明："本回答仅供参考，不替代医生诊断和治疗，具体医疗方案请遵医嘱"
`

	diagnosisAssistantSystem = `你是一位专业的诊断辅助AI。基于患者的症状描述和医疗知识，提供可能的诊断建议。
注意：这仅是辅助参考，最终诊断需要医生确认。`

	drugConsultationSystem = `你是一位专业的用药咨询AI。基于药物信息和知识图谱，回答用药相关问题。
注意：具体用药方案需要医生根据患者情况制定。`

	healthManagerSystem = `你是一位专业的健康管家AI。你的职责是：
1. 基于用户画像和医疗知识，制定个性化的健康管理计划
2. 提供慢病管理、生活方式、健康数据追踪方面的建议
3. 对医学问题保持谨慎，不替代医生的诊断和治疗方案
4. 在涉及具体药物或治疗调整时，提醒用户先咨询医生`

	customerServiceSystem = `你是一位专业的客服助手AI。你的职责是：
1. 解答系统使用方面的常见问题
2. 为用户提供功能指导
3. 友好地处理用户反馈
4. 对于超出客服范围的医疗问题，引导用户前往医生咨询入口`
)

func formatMedicalPrompt(context, question string) string {
	return fmt.Sprintf("基于以下医疗信息，回答用户的问题：\n\n%s\n\n用户问题：%s\n\n请提供专业、准确的回答，并标注信息来源。", context, question)
}

func formatDiagnosisPrompt(symptoms, context string) string {
	prompt := fmt.Sprintf("患者症状描述：%s\n", symptoms)
	if context != "" {
		prompt += fmt.Sprintf("\n相关医疗信息：\n%s\n", context)
	}
	prompt += "\n请提供可能的诊断建议和相关检查建议。"
	return prompt
}

func formatDrugPrompt(question, drugInfo, context string) string {
	prompt := fmt.Sprintf("用药咨询问题：%s\n", question)
	if drugInfo != "" {
		prompt += fmt.Sprintf("\n药物信息：\n%s\n", drugInfo)
	}
	if context != "" {
		prompt += fmt.Sprintf("\n相关医疗信息：\n%s\n", context)
	}
	prompt += "\n请提供专业的用药建议。"
	return prompt
}

func formatHealthPlanPrompt(question string, profile map[string]any, context string) string {
	return fmt.Sprintf("基于以下用户画像和参考信息，制定健康管理计划：\n\n用户画像：%v\n\n%s\n\n用户需求：%s\n\n请提供包含目标、具体行动项和随访节奏的计划。", profile, context, question)
}

func formatCustomerServicePrompt(question, context string) string {
	if context == "" {
		return fmt.Sprintf("用户问题：%s\n\n请提供友好、清晰的回答。", question)
	}
	return fmt.Sprintf("参考信息：\n%s\n\n用户问题：%s\n\n请提供友好、清晰的回答。", context, question)
}
