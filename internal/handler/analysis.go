package handler

import (
	"errors"
	"net/http"
	"time"

	"counsel-backend/internal/config"
	"counsel-backend/internal/model"
	"counsel-backend/internal/service"
	"counsel-backend/internal/stream"
	"counsel-backend/internal/utils"
	"counsel-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
	streams         *stream.Registry
	streamCfg       config.StreamConfig
}

func NewAnalysisHandler(analysisService *service.AnalysisService, cfg *config.Config) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		streams:         analysisService.Streams(),
		streamCfg:       cfg.Stream,
	}
}

// Analyze 发起一次分析。带 session_id 且流式通道建立成功时返回
// streamed=true 的确认，正文走 SSE；否则返回完整的同步结果。
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req model.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, stream.ErrInvalidSessionID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("分析失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StreamEvents 长连接投递端。把 actor 事件逐条转发给客户端，
// 每 10s 心跳防中间代理掐断空闲连接，30s 无会话事件则超时收尾，
// 客户端断开触发会话取消。
func (h *AnalysisHandler) StreamEvents(c *gin.Context) {
	sessionID := c.Param("session_id")

	sess, err := h.streams.GetOrCreate(sessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sseWriter := utils.NewSSEWriter(c.Writer)
	events := sess.Attach()

	if err := sseWriter.WriteEvent(model.EventConnectionEstablished, model.StreamEvent{
		SessionID: sessionID,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		sess.Cancel()
		return
	}

	heartbeat := time.NewTicker(h.streamCfg.HeartbeatInterval)
	defer heartbeat.Stop()

	// 空闲计时只看会话事件，心跳成功不续期，否则永远到不了超时
	idle := time.NewTimer(h.streamCfg.IdleTimeout)
	defer idle.Stop()

	ctx := c.Request.Context()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// 终止事件被缓冲挤掉时补发，客户端绝不悬空收尾
				if terminal, found := sess.TerminalEvent(); found {
					sseWriter.WriteEvent(terminal.Type, terminal)
				}
				return
			}

			if err := sseWriter.WriteEvent(ev.Type, ev); err != nil {
				logger.Warnf("会话 %s 推送失败，按断开处理: %v", sessionID, err)
				sess.Cancel()
				return
			}
			if ev.Type == model.EventProcessingComplete ||
				ev.Type == model.EventError ||
				ev.Type == model.EventTimeout {
				return
			}

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(h.streamCfg.IdleTimeout)

		case <-heartbeat.C:
			if err := sseWriter.WriteEvent(model.EventHeartbeat, model.StreamEvent{
				Timestamp: time.Now().Unix(),
			}); err != nil {
				// 心跳写失败视为断开
				sess.Cancel()
				return
			}

		case <-idle.C:
			sseWriter.WriteEvent(model.EventTimeout, model.StreamEvent{
				SessionID: sessionID,
				Message:   "connection idle timeout",
				Timestamp: time.Now().Unix(),
			})
			sess.Cancel()
			return

		case <-ctx.Done():
			sess.Cancel()
			return
		}
	}
}

// CancelStream 主动取消会话；未知会话返回 404
func (h *AnalysisHandler) CancelStream(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.streams.Cancel(sessionID); err != nil {
		if errors.Is(err, stream.ErrInvalidSessionID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session cancelled"})
}
