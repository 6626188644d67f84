package domain

import (
	"fmt"
	"strings"
)

// Verdict 匹配器的输出
type Verdict struct {
	Option  string             `json:"option"`
	Score   float64            `json:"score"`
	Matched []string           `json:"matched,omitempty"`
	Scores  map[string]float64 `json:"scores,omitempty"`
}

// Evaluate 对场景文本逐条匹配关键词，按权重累加各选项得分，
// 取最高分作为推荐。无任何命中时返回空 Option。
func Evaluate(rs *RuleSet, scenario string) *Verdict {
	lowered := strings.ToLower(scenario)

	v := &Verdict{Scores: make(map[string]float64)}
	for _, c := range rs.Criteria {
		for _, kw := range c.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(kw)) {
				v.Scores[c.Option] += c.Weight
				v.Matched = append(v.Matched, kw)
			}
		}
	}

	for option, score := range v.Scores {
		if score > v.Score || (score == v.Score && option < v.Option) {
			v.Option = option
			v.Score = score
		}
	}

	return v
}

// BuildPrompt 组装送往上游模型的提示词；提供方参数由适配器透传
func BuildPrompt(rs *RuleSet, v *Verdict, scenario string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "领域：%s\n", rs.Name)
	if rs.Description != "" {
		fmt.Fprintf(&b, "领域说明：%s\n", rs.Description)
	}
	fmt.Fprintf(&b, "\n场景：\n%s\n", scenario)

	if v.Option != "" {
		fmt.Fprintf(&b, "\n规则匹配初步推荐：%s（得分 %.1f", v.Option, v.Score)
		if len(v.Matched) > 0 {
			fmt.Fprintf(&b, "，命中关键词：%s", strings.Join(v.Matched, "、"))
		}
		b.WriteString("）\n")
	} else {
		b.WriteString("\n规则匹配未命中任何判据，请根据场景自行给出推荐。\n")
	}

	b.WriteString("\n请输出完整的决策分析。")
	return b.String()
}
