package storage

import (
	"counsel-backend/internal/domain"
)

// Storage 命名规则集的持久化接口
type Storage interface {
	SaveRuleSet(rs *domain.RuleSet) error
	GetRuleSet(name string) (*domain.RuleSet, error)
	DeleteRuleSet(name string) error
	ListRuleSets() ([]*domain.RuleSet, error)

	Init() error
	Close() error
}
