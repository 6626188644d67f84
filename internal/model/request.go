package model

type AnalyzeRequest struct {
	Scenario  string `json:"scenario" binding:"required"`
	Domain    string `json:"domain"`
	SessionID string `json:"session_id"` // 为空时走同步路径
}
