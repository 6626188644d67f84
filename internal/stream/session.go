// Package stream 实现每会话一个 actor 的流式状态机与会话注册表。
// 会话状态只由 actor 自己的 goroutine 修改；对外通信全部走事件通道。
package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"counsel-backend/internal/model"
	"counsel-backend/internal/render"
	"counsel-backend/internal/upstream"
	"counsel-backend/pkg/logger"

	"github.com/cloudwego/eino/schema"
)

// Session 单个流式会话的 actor。
// 状态机：initializing → streaming → {completed | error | timeout}，
// 终止态不再迁移，终止事件恰好发出一次。
type Session struct {
	id       string
	registry *Registry

	mu           sync.Mutex
	status       model.SessionStatus
	plain        string
	html         string
	startedAt    time.Time
	lastActivity time.Time
	attached     bool
	generating   bool
	closed       bool
	terminalEv   model.StreamEvent

	events     chan model.StreamEvent
	cancel     context.CancelFunc
	inactivity time.Duration
}

func newSession(id string, registry *Registry, bufferSize int, inactivity time.Duration) *Session {
	now := time.Now()
	return &Session{
		id:           id,
		registry:     registry,
		status:       model.StatusInitializing,
		startedAt:    now,
		lastActivity: now,
		events:       make(chan model.StreamEvent, bufferSize),
		inactivity:   inactivity,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot 返回当前累积的纯文本与 HTML
func (s *Session) Snapshot() (plain, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plain, s.html
}

// Attach 注册投递目标并返回事件通道。同一时刻只有一个活跃连接消费；
// 重复 Attach 返回同一通道，不会复制事件。
func (s *Session) Attach() <-chan model.StreamEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = true
	return s.events
}

func (s *Session) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// BeginGeneration 发起上游生成并进入 streaming 态。幂等：
// 已在生成或已终止的会话直接返回，不会重复投喂。
func (s *Session) BeginGeneration(adapter upstream.Adapter, req *upstream.Request, domainName string) error {
	s.mu.Lock()
	if s.generating || s.status.Terminal() {
		s.mu.Unlock()
		return nil
	}
	s.generating = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	reader, err := adapter.Stream(ctx, req)
	if err != nil {
		s.terminate(model.StatusError, model.StreamEvent{
			Type:      model.EventError,
			SessionID: s.id,
			Reason:    err.Error(),
			Timestamp: time.Now().Unix(),
		})
		return err
	}

	s.mu.Lock()
	if s.status.Terminal() {
		// Stream 建立期间被取消
		s.mu.Unlock()
		reader.Close()
		return nil
	}
	s.status = model.StatusStreaming
	s.sendLocked(model.StreamEvent{
		Type:      model.EventProcessingStarted,
		SessionID: s.id,
		Domain:    domainName,
		Timestamp: time.Now().Unix(),
	})
	s.mu.Unlock()

	go s.run(ctx, reader)
	return nil
}

type chunkOrErr struct {
	msg *schema.Message
	err error
}

// run actor 主循环：严格按到达顺序处理分片，空闲超过 inactivity 触发超时。
// Recv 阻塞在独立的搬运 goroutine 里，主循环才能同时等定时器。
func (s *Session) run(ctx context.Context, reader *schema.StreamReader[*schema.Message]) {
	defer reader.Close()

	chunks := make(chan chunkOrErr, 64)
	go func() {
		for {
			msg, err := reader.Recv()
			select {
			case chunks <- chunkOrErr{msg: msg, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(s.inactivity)
	defer timer.Stop()

	for {
		select {
		case ce := <-chunks:
			if errors.Is(ce.err, io.EOF) {
				s.complete()
				return
			}
			if ce.err != nil {
				s.terminate(model.StatusError, model.StreamEvent{
					Type:      model.EventError,
					SessionID: s.id,
					Reason:    ce.err.Error(),
					Timestamp: time.Now().Unix(),
				})
				return
			}
			if ce.msg == nil || ce.msg.Content == "" {
				continue
			}
			s.applyChunk(ce.msg.Content)

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.inactivity)

		case <-timer.C:
			s.terminate(model.StatusTimeout, model.StreamEvent{
				Type:      model.EventTimeout,
				SessionID: s.id,
				Message:   "generation timed out: no upstream activity",
				Timestamp: time.Now().Unix(),
			})
			return

		case <-ctx.Done():
			// Cancel 已经完成终止迁移，这里只退出循环
			return
		}
	}
}

// applyChunk 追加分片、做增量渲染并发出 content_chunk
func (s *Session) applyChunk(text string) {
	s.mu.Lock()
	if s.status.Terminal() {
		// 取消后迟到的分片静默丢弃
		s.mu.Unlock()
		return
	}

	result := render.RenderChunk(text, s.plain, s.html)
	s.plain += text
	s.html = result.FullHTML
	s.lastActivity = time.Now()

	ev := model.StreamEvent{
		Type:               model.EventContentChunk,
		SessionID:          s.id,
		Content:            text,
		ChunkHTML:          result.ChunkHTML,
		FullHTML:           result.FullHTML,
		AccumulatedContent: s.plain,
		Replace:            result.Replace,
		Timestamp:          time.Now().Unix(),
	}
	s.sendLocked(ev)
	s.mu.Unlock()
}

func (s *Session) complete() {
	s.mu.Lock()
	if s.status.Terminal() {
		s.mu.Unlock()
		return
	}
	s.status = model.StatusCompleted
	ev := model.StreamEvent{
		Type:         model.EventProcessingComplete,
		SessionID:    s.id,
		FinalContent: s.plain,
		FinalHTML:    s.html,
		Timestamp:    time.Now().Unix(),
	}
	s.terminalEv = ev
	s.sendLocked(ev)
	s.closeLocked()
	s.mu.Unlock()

	s.release()
}

// terminate 迁移到指定终止态并恰好发出一次终止事件
func (s *Session) terminate(status model.SessionStatus, ev model.StreamEvent) {
	s.mu.Lock()
	if s.status.Terminal() {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.terminalEv = ev
	s.sendLocked(ev)
	s.closeLocked()
	s.mu.Unlock()

	s.release()
}

// Cancel 任意状态下可调用，幂等；尽力通知上游停止
func (s *Session) Cancel() {
	s.terminate(model.StatusError, model.StreamEvent{
		Type:      model.EventError,
		SessionID: s.id,
		Reason:    "session cancelled",
		Timestamp: time.Now().Unix(),
	})
}

// TerminalEvent 终止事件快照。终止事件在缓冲满时可能没挤进通道，
// 投递端在通道关闭后据此补发，保证客户端视角恰好一个终止事件。
func (s *Session) TerminalEvent() (model.StreamEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.Terminal() {
		return model.StreamEvent{}, false
	}
	return s.terminalEv, true
}

// sendLocked 非阻塞投递；投递目标迟缓时丢弃，后续事件可自恢复状态
func (s *Session) sendLocked(ev model.StreamEvent) {
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		logger.Warnf("会话 %s 事件缓冲已满，丢弃 %s", s.id, ev.Type)
	}
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

// release 取消上游并从注册表移除；终止后有界时间内完成资源回收
func (s *Session) release() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.registry.remove(s.id)
}
