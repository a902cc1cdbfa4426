package chat

import (
	"fmt"

	"github.com/easyops/dashchat-go/pkg/audit"
	"github.com/easyops/dashchat-go/pkg/contextual"
	"github.com/easyops/dashchat-go/pkg/core/config"
	"github.com/easyops/dashchat-go/pkg/core/llm"
	"github.com/easyops/dashchat-go/pkg/observe"
)

// ServiceSelector 根据配置选择并装配聊天服务：
// 仅基础传输，或基础传输加上下文增强包装。
type ServiceSelector struct {
	cfg     *config.Config
	logger  observe.Logger
	metrics *observe.Metrics
}

// SelectorOption 配置 ServiceSelector
type SelectorOption func(*ServiceSelector)

// WithSelectorLogger 设置日志
func WithSelectorLogger(logger observe.Logger) SelectorOption {
	return func(s *ServiceSelector) {
		s.logger = logger
	}
}

// WithSelectorMetrics 设置指标
func WithSelectorMetrics(metrics *observe.Metrics) SelectorOption {
	return func(s *ServiceSelector) {
		s.metrics = metrics
	}
}

// NewServiceSelector 创建服务装配器
func NewServiceSelector(cfg *config.Config, opts ...SelectorOption) *ServiceSelector {
	s := &ServiceSelector{
		cfg:    cfg,
		logger: observe.NewSlogLogger(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build 装配完整的聊天服务。
// 返回的 Service 由调用方负责 Close。
func (s *ServiceSelector) Build() (Service, error) {
	if err := s.cfg.Chat.Validate(); err != nil {
		return nil, err
	}
	if err := s.cfg.Context.Validate(); err != nil {
		return nil, err
	}

	provider, err := llm.FromConfig(s.cfg.Chat)
	if err != nil {
		return nil, fmt.Errorf("create chat transport: %w", err)
	}

	base := NewTransportService(provider,
		WithTransportTimeout(s.cfg.Chat.Timeout),
		WithTransportLogger(s.logger),
	)

	if !s.cfg.Chat.EnableContextAugmentation {
		return base, nil
	}

	recorder, err := s.buildRecorder()
	if err != nil {
		provider.Close()
		return nil, err
	}

	scoringCfg := contextual.NewConfig(
		contextual.WithMaxContextTokens(s.cfg.Context.MaxContextTokens),
	)

	return NewResilientService(base, s.cfg.Chat, s.cfg.Context,
		WithSelector(contextual.NewBudgetSelector(contextual.NewContentScorer(scoringCfg))),
		WithAssembler(contextual.NewAssembler(scoringCfg)),
		WithRecorder(recorder),
		WithLogger(s.logger),
		WithMetrics(s.metrics),
	), nil
}

// buildRecorder 按配置创建审计记录器
func (s *ServiceSelector) buildRecorder() (audit.Recorder, error) {
	if !s.cfg.Context.AuditAccess {
		return audit.NewNoopRecorder(), nil
	}

	dsn := s.cfg.Context.AuditDSN
	if dsn == "" {
		dsn = "dashchat_audit.db"
	}

	recorder, err := audit.NewSQLiteRecorder(dsn)
	if err != nil {
		return nil, fmt.Errorf("create audit recorder: %w", err)
	}
	return recorder, nil
}
