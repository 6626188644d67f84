// Package domain 定义命名规则集与配置驱动的推荐匹配器。
package domain

import "time"

// Criterion 单条加权判据：场景文本命中 Keywords 时给 Option 累加权重
type Criterion struct {
	Keywords []string `json:"keywords" binding:"required"`
	Weight   float64  `json:"weight"`
	Option   string   `json:"option" binding:"required"`
	Note     string   `json:"note,omitempty"`
}

type RuleSet struct {
	Name         string      `json:"name" binding:"required"`
	Description  string      `json:"description,omitempty"`
	SystemPrompt string      `json:"system_prompt,omitempty"`
	Criteria     []Criterion `json:"criteria" binding:"required"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// DefaultName 未指定领域时使用的规则集
const DefaultName = "general"

// Default 内置兜底规则集，存储中找不到命名规则集时使用
func Default() *RuleSet {
	now := time.Now()
	return &RuleSet{
		Name:        DefaultName,
		Description: "通用决策规则",
		SystemPrompt: "你是一个决策支持助手。基于给出的场景、规则集和初步推荐，" +
			"用 Markdown 输出一份结构化的分析，包含推荐结论、理由和风险提示。",
		Criteria: []Criterion{
			{Keywords: []string{"紧急", "故障", "宕机", "urgent", "outage"}, Weight: 3, Option: "立即处理"},
			{Keywords: []string{"风险", "亏损", "违规", "risk", "loss"}, Weight: 2, Option: "暂缓评估"},
			{Keywords: []string{"机会", "增长", "收益", "opportunity", "growth"}, Weight: 2, Option: "推进"},
			{Keywords: []string{"预算", "成本", "budget", "cost"}, Weight: 1, Option: "暂缓评估"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
