package model

// SSE 事件类型
const (
	EventConnectionEstablished = "connection_established"
	EventProcessingStarted     = "processing_started"
	EventContentChunk          = "content_chunk"
	EventProcessingComplete    = "processing_complete"
	EventError                 = "error"
	EventTimeout               = "timeout"
	EventHeartbeat             = "heartbeat"
)

type SessionStatus string

const (
	StatusInitializing SessionStatus = "initializing"
	StatusStreaming    SessionStatus = "streaming"
	StatusCompleted    SessionStatus = "completed"
	StatusError        SessionStatus = "error"
	StatusTimeout      SessionStatus = "timeout"
)

// Terminal 终止态不允许再次迁移
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusTimeout
}

// StreamEvent 推送给客户端的事件，按 Type 取对应字段子集
type StreamEvent struct {
	Type               string `json:"-"`
	SessionID          string `json:"session_id,omitempty"`
	Domain             string `json:"domain,omitempty"`
	Content            string `json:"content,omitempty"`
	ChunkHTML          string `json:"chunk_html,omitempty"`
	FullHTML           string `json:"full_html,omitempty"`
	AccumulatedContent string `json:"accumulated_content,omitempty"`
	Replace            bool   `json:"replace,omitempty"` // chunk_html 为整文档替换
	FinalContent       string `json:"final_content,omitempty"`
	FinalHTML          string `json:"final_html,omitempty"`
	Reason             string `json:"reason,omitempty"`
	Message            string `json:"message,omitempty"`
	Timestamp          int64  `json:"timestamp,omitempty"`
}
