package stream

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionNotFound  = errors.New("stream session not found")
	ErrInvalidSessionID = errors.New("invalid session id")
)

const maxSessionIDLen = 255

// Registry 会话 id → actor 的共享查找表。只保存句柄，不保存会话内容；
// 写操作仅限原子的 insert-if-absent 与删除。
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	bufferSize int
	inactivity time.Duration
}

func NewRegistry(bufferSize int, inactivity time.Duration) *Registry {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if inactivity <= 0 {
		inactivity = 30 * time.Second
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		bufferSize: bufferSize,
		inactivity: inactivity,
	}
}

// ValidateSessionID 会话 id 为 1-255 字符的不透明字符串
func ValidateSessionID(id string) error {
	if id == "" || len(id) > maxSessionIDLen {
		return ErrInvalidSessionID
	}
	return nil
}

// GetOrCreate 幂等启动：已存在时返回现有 actor，保证每个 id 至多一个
func (r *Registry) GetOrCreate(id string) (*Session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	sess, exists := r.sessions[id]
	r.mu.RUnlock()
	if exists {
		return sess, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, exists := r.sessions[id]; exists {
		return sess, nil
	}

	sess = newSession(id, r, r.bufferSize, r.inactivity)
	r.sessions[id] = sess
	return sess, nil
}

// Get 未知会话快速失败，绝不静默吞掉
func (r *Registry) Get(id string) (*Session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, exists := r.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Cancel 取消指定会话；重复取消或取消已结束的会话不报错
func (r *Registry) Cancel(id string) error {
	sess, err := r.Get(id)
	if err != nil {
		return err
	}
	sess.Cancel()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
