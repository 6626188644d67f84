package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"counsel-backend/internal/domain"
	"counsel-backend/pkg/logger"
)

// DiskStorage 每个规则集一个 JSON 文件，内存缓存全量写穿
type DiskStorage struct {
	dataDir string
	cache   map[string]*domain.RuleSet
	mu      sync.RWMutex
}

func NewDiskStorage(dataDir string) *DiskStorage {
	return &DiskStorage{
		dataDir: dataDir,
		cache:   make(map[string]*domain.RuleSet),
	}
}

func (d *DiskStorage) Init() error {
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(d.dataDir, entry.Name()))
		if err != nil {
			logger.Warnf("读取规则集文件失败，跳过 %s: %v", entry.Name(), err)
			continue
		}

		var rs domain.RuleSet
		if err := json.Unmarshal(data, &rs); err != nil {
			// 坏文件不阻断启动
			logger.Warnf("规则集文件损坏，跳过 %s: %v", entry.Name(), err)
			continue
		}

		d.cache[rs.Name] = &rs
	}

	logger.Infof("磁盘存储初始化完成，加载 %d 个规则集", len(d.cache))
	return nil
}

func (d *DiskStorage) Close() error {
	return nil
}

func (d *DiskStorage) SaveRuleSet(rs *domain.RuleSet) error {
	if rs == nil || rs.Name == "" {
		return ErrInvalidData
	}

	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	path := d.filePath(rs.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.cache[rs.Name] = rs
	return nil
}

func (d *DiskStorage) GetRuleSet(name string) (*domain.RuleSet, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rs, exists := d.cache[name]
	if !exists {
		return nil, ErrRuleSetNotFound
	}

	return rs, nil
}

func (d *DiskStorage) DeleteRuleSet(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.cache[name]; !exists {
		return ErrRuleSetNotFound
	}

	if err := os.Remove(d.filePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	delete(d.cache, name)
	return nil
}

func (d *DiskStorage) ListRuleSets() ([]*domain.RuleSet, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rulesets := make([]*domain.RuleSet, 0, len(d.cache))
	for _, rs := range d.cache {
		rulesets = append(rulesets, rs)
	}

	return rulesets, nil
}

// filePath 规则集名做文件名清洗，避免路径穿越
func (d *DiskStorage) filePath(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', ':':
			return '_'
		}
		return r
	}, name)
	return filepath.Join(d.dataDir, safe+".json")
}
