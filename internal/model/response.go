package model

// AnalysisResult 同步与流式路径共用的结果形状。
// 流式路径下 Content/HTML 为空，正文通过 SSE 事件推送。
type AnalysisResult struct {
	ID             string   `json:"id"`
	SessionID      string   `json:"session_id,omitempty"`
	Domain         string   `json:"domain"`
	Recommendation string   `json:"recommendation"`
	Score          float64  `json:"score"`
	Matched        []string `json:"matched,omitempty"`
	Content        string   `json:"content,omitempty"`
	HTML           string   `json:"html,omitempty"`
	Streamed       bool     `json:"streamed"`
	Timestamp      int64    `json:"timestamp"`
}
