package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"counsel-backend/internal/config"
	"counsel-backend/internal/domain"
	"counsel-backend/internal/model"
	"counsel-backend/internal/render"
	"counsel-backend/internal/storage"
	"counsel-backend/internal/stream"
	"counsel-backend/internal/upstream"
	"counsel-backend/pkg/logger"

	"github.com/google/uuid"
)

// AnalysisService 编排一次决策分析：解析规则集 → 规则匹配 → 组装生成
// 请求 → 优先流式推送，建立不了流则退回同步生成。两条路径返回相同的
// 结果形状，只差在正文的投递时机。
type AnalysisService struct {
	cfg     *config.Config
	rules   storage.Storage
	adapter upstream.Adapter
	streams *stream.Registry
}

func NewAnalysisService(cfg *config.Config, rules storage.Storage, adapter upstream.Adapter, streams *stream.Registry) *AnalysisService {
	return &AnalysisService{
		cfg:     cfg,
		rules:   rules,
		adapter: adapter,
		streams: streams,
	}
}

func (s *AnalysisService) Streams() *stream.Registry {
	return s.streams
}

func (s *AnalysisService) RuleSets() storage.Storage {
	return s.rules
}

func (s *AnalysisService) Analyze(ctx context.Context, req *model.AnalyzeRequest) (*model.AnalysisResult, error) {
	rs := s.resolveRuleSet(req.Domain)
	verdict := domain.Evaluate(rs, req.Scenario)

	greq := &upstream.Request{
		System:  rs.SystemPrompt,
		Prompt:  domain.BuildPrompt(rs, verdict, req.Scenario),
		Timeout: s.cfg.Stream.GenerateTimeout,
	}

	result := &model.AnalysisResult{
		ID:             uuid.NewString(),
		SessionID:      req.SessionID,
		Domain:         rs.Name,
		Recommendation: verdict.Option,
		Score:          verdict.Score,
		Matched:        verdict.Matched,
		Timestamp:      time.Now().Unix(),
	}

	if req.SessionID != "" {
		streamed, err := s.tryStream(req.SessionID, rs.Name, greq)
		if err != nil {
			return nil, err
		}
		if streamed {
			result.Streamed = true
			return result, nil
		}
		logger.Warnf("会话 %s 流式通道未建立，退回同步生成", req.SessionID)
	}

	// 超时由适配器按 greq.Timeout 约束
	content, err := s.adapter.Generate(ctx, greq)
	if err != nil {
		return nil, fmt.Errorf("synchronous generation: %w", err)
	}

	result.Content = content
	result.HTML = render.RenderDocument(content)
	return result, nil
}

// tryStream 在有界重试窗口内等待投递端挂上来，挂上即开始生成。
// id 非法属于调用方错误，原样返回；窗口耗尽只表示走同步路径。
func (s *AnalysisService) tryStream(sessionID, domainName string, greq *upstream.Request) (bool, error) {
	sess, err := s.streams.GetOrCreate(sessionID)
	if err != nil {
		if errors.Is(err, stream.ErrInvalidSessionID) {
			return false, err
		}
		return false, nil
	}

	for i := 0; i < s.cfg.Stream.AttachRetries; i++ {
		if sess.Attached() {
			break
		}
		time.Sleep(s.cfg.Stream.AttachInterval)
	}
	if !sess.Attached() {
		sess.Cancel()
		return false, nil
	}

	if err := sess.BeginGeneration(s.adapter, greq, domainName); err != nil {
		// actor 已发出 error 终止事件，这里退回同步路径兜底
		logger.Errorf("会话 %s 上游流建立失败: %v", sessionID, err)
		return false, nil
	}
	return true, nil
}

func (s *AnalysisService) resolveRuleSet(name string) *domain.RuleSet {
	if name == "" {
		name = domain.DefaultName
	}

	rs, err := s.rules.GetRuleSet(name)
	if err != nil {
		if !errors.Is(err, storage.ErrRuleSetNotFound) {
			logger.Errorf("读取规则集 %s 失败: %v", name, err)
		}
		return domain.Default()
	}
	return rs
}
