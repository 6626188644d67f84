package storage

import (
	"sync"

	"counsel-backend/internal/domain"
)

type MemoryStorage struct {
	rulesets map[string]*domain.RuleSet
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		rulesets: make(map[string]*domain.RuleSet),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) SaveRuleSet(rs *domain.RuleSet) error {
	if rs == nil || rs.Name == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rulesets[rs.Name] = rs
	return nil
}

func (m *MemoryStorage) GetRuleSet(name string) (*domain.RuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rs, exists := m.rulesets[name]
	if !exists {
		return nil, ErrRuleSetNotFound
	}

	return rs, nil
}

func (m *MemoryStorage) DeleteRuleSet(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rulesets[name]; !exists {
		return ErrRuleSetNotFound
	}

	delete(m.rulesets, name)
	return nil
}

func (m *MemoryStorage) ListRuleSets() ([]*domain.RuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rulesets := make([]*domain.RuleSet, 0, len(m.rulesets))
	for _, rs := range m.rulesets {
		rulesets = append(rulesets, rs)
	}

	return rulesets, nil
}
