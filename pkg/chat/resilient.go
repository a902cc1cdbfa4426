package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/easyops/dashchat-go/pkg/audit"
	"github.com/easyops/dashchat-go/pkg/contextual"
	"github.com/easyops/dashchat-go/pkg/core/config"
	"github.com/easyops/dashchat-go/pkg/core/errors"
	"github.com/easyops/dashchat-go/pkg/core/message"
	"github.com/easyops/dashchat-go/pkg/observe"
	"github.com/easyops/dashchat-go/pkg/snapshot"
	"github.com/easyops/dashchat-go/pkg/stream"
)

// ResilientService 以显式组合包装基础聊天传输，叠加上下文增强、
// 流式重建与无上下文回退。
//
// 降级链：增强失败 → 消息原样发送；传输/流失败且配置了回退 →
// 去掉快照重试一次；仍失败才向调用方抛错。增强失败永远不会
// 阻塞聊天本身。
type ResilientService struct {
	base      Service
	selector  contextual.Selector
	assembler *contextual.Assembler
	registry  *sessionRegistry
	recorder  audit.Recorder
	logger    observe.Logger
	metrics   *observe.Metrics
	cache     *augmentCache

	ctxCfg          config.ContextConfig
	augmentEnabled  bool
	fallbackEnabled bool
}

// ResilientOption 配置 ResilientService
type ResilientOption func(*ResilientService)

// WithSelector 设置内容选择器
func WithSelector(selector contextual.Selector) ResilientOption {
	return func(s *ResilientService) {
		s.selector = selector
	}
}

// WithAssembler 设置提示词装配器
func WithAssembler(assembler *contextual.Assembler) ResilientOption {
	return func(s *ResilientService) {
		s.assembler = assembler
	}
}

// WithRecorder 设置审计记录器
func WithRecorder(recorder audit.Recorder) ResilientOption {
	return func(s *ResilientService) {
		s.recorder = recorder
	}
}

// WithLogger 设置日志
func WithLogger(logger observe.Logger) ResilientOption {
	return func(s *ResilientService) {
		s.logger = logger
	}
}

// WithMetrics 设置指标
func WithMetrics(metrics *observe.Metrics) ResilientOption {
	return func(s *ResilientService) {
		s.metrics = metrics
	}
}

// NewResilientService 创建上下文增强装饰器
func NewResilientService(base Service, chatCfg config.ChatConfig, ctxCfg config.ContextConfig, opts ...ResilientOption) *ResilientService {
	s := &ResilientService{
		base:            base,
		registry:        newSessionRegistry(),
		recorder:        audit.NewNoopRecorder(),
		logger:          observe.NewNoopLogger(),
		cache:           newAugmentCache(ctxCfg.CacheTTL),
		ctxCfg:          ctxCfg,
		augmentEnabled:  chatCfg.EnableContextAugmentation,
		fallbackEnabled: chatCfg.EnableStandardChatFallback,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.selector == nil {
		s.selector = contextual.NewBudgetSelector(contextual.NewContentScorer(nil))
	}
	if s.assembler == nil {
		s.assembler = contextual.NewAssembler(contextual.NewConfig(
			contextual.WithMaxContextTokens(ctxCfg.MaxContextTokens),
		))
	}

	return s
}

// Send 发送一轮对话，按需叠加上下文增强
func (s *ResilientService) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(ctx)
	gen := s.registry.register(conversationID, cancel)
	defer func() {
		s.registry.remove(conversationID, gen)
		cancel()
	}()

	resp, err := s.sendOnce(ctx, req, conversationID, true)
	if err == nil {
		return resp, nil
	}

	// 取消是独立的终结状态，不进入回退链
	if errors.IsCanceled(err) {
		return nil, err
	}

	if !s.fallbackEnabled || req.Snapshot == nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Warn("contextual chat failed, retrying without context",
		"conversation_id", conversationID,
		"error", err,
	)
	s.metrics.RecordFallback(ctx)

	return s.sendOnce(ctx, req, conversationID, false)
}

// sendOnce 执行一次发送。withContext 为 false 时完全忽略快照。
func (s *ResilientService) sendOnce(ctx context.Context, req *SendRequest, conversationID string, withContext bool) (*SendResponse, error) {
	messages := req.Messages
	if withContext && s.augmentEnabled && req.Snapshot != nil {
		messages = s.augment(ctx, conversationID, req)
	}

	baseReq := &SendRequest{
		Messages:       messages,
		ConversationID: conversationID,
		Stream:         req.Stream,
		OnDelta:        req.OnDelta,
		OnEvent:        req.OnEvent,
	}

	resp, err := s.base.Send(ctx, baseReq)
	if err != nil {
		return nil, err
	}

	if resp.Stream != nil {
		return s.reconstruct(ctx, req, resp)
	}

	s.postProcess(resp, req.Snapshot)
	return resp, nil
}

// augment 把最新用户消息替换为带上下文的版本。
// 任何失败只记日志并返回原始消息，绝不阻塞发送。
func (s *ResilientService) augment(ctx context.Context, conversationID string, req *SendRequest) []message.Message {
	idx := message.LastUserIndex(req.Messages)
	if idx < 0 {
		return req.Messages
	}

	userMessage := req.Messages[idx].Content
	augmented, elementIDs, err := s.buildAugmentation(conversationID, userMessage, req.Snapshot)
	if err != nil {
		s.logger.WithContext(ctx).Warn("context augmentation failed, sending unmodified message",
			"conversation_id", conversationID,
			"error", err,
		)
		s.metrics.RecordAugmentationFailure(ctx)
		return req.Messages
	}
	if augmented == userMessage {
		// 没有可补充的上下文
		return req.Messages
	}

	if err := s.recorder.Record(ctx, audit.Record{
		ConversationID: conversationID,
		App:            req.Snapshot.Page.App,
		Page:           req.Snapshot.Page.Title,
		ElementIDs:     elementIDs,
	}); err != nil {
		s.logger.Warn("audit record failed", "error", err)
	}
	s.metrics.RecordAugmentation(ctx, req.Snapshot.Page.App)

	result := make([]message.Message, len(req.Messages))
	copy(result, req.Messages)
	result[idx].Content = augmented
	return result
}

// buildAugmentation 执行选择与装配，panic 被转换为增强错误。
func (s *ResilientService) buildAugmentation(conversationID, userMessage string, snap *snapshot.Snapshot) (result string, elementIDs []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrAssemblyFailed, r)
		}
	}()

	key := cacheKey(conversationID, userMessage, snap)
	if cached, ids, ok := s.cache.get(key); ok {
		return cached, ids, nil
	}

	elements := snap.Content
	if s.ctxCfg.RespectPermissions {
		elements = filterRestricted(elements, &snap.Permissions)
	}

	selected := s.selector.Select(elements, userMessage, s.ctxCfg.MaxContentElements)
	selected = capVisualizations(selected, s.ctxCfg.MaxVisualizations)

	result = s.assembler.Assemble(userMessage, snap, selected)

	elementIDs = make([]string, 0, len(selected))
	for _, element := range selected {
		elementIDs = append(elementIDs, element.ID)
	}

	s.cache.put(key, result, elementIDs)
	return result, elementIDs, nil
}

// reconstruct 消费基础传输返回的事件流并重建终结结果
func (s *ResilientService) reconstruct(ctx context.Context, req *SendRequest, resp *SendResponse) (*SendResponse, error) {
	defer resp.Stream.Close()

	rec := stream.NewReconstructor(
		stream.WithDeltaHandler(req.OnDelta),
		stream.WithEventHandler(func(ev stream.Event) {
			s.metrics.RecordStreamEvent(ctx, string(ev.Type))
			if req.OnEvent != nil {
				req.OnEvent(ev)
			}
		}),
	)

	result, err := rec.Run(ctx, resp.Stream)
	if err != nil {
		return nil, err
	}

	out := &SendResponse{
		Messages:       result.Messages,
		Sources:        result.Sources,
		ConversationID: resp.ConversationID,
		InteractionID:  resp.InteractionID,
	}
	if result.InteractionID != "" {
		out.InteractionID = result.InteractionID
	}

	s.postProcess(out, req.Snapshot)
	return out, nil
}

// postProcess 给最后一条助手消息附加上下文元数据，不改动回答文本
func (s *ResilientService) postProcess(resp *SendResponse, snap *snapshot.Snapshot) {
	if snap == nil {
		return
	}
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		if resp.Messages[i].Role != message.RoleAssistant {
			continue
		}
		if snap.Page.App != "" {
			resp.Messages[i].SetMetadata("app", snap.Page.App)
		}
		if snap.Page.Title != "" {
			resp.Messages[i].SetMetadata("page", snap.Page.Title)
		}
		break
	}
}

// Regenerate 重新生成最后一轮回答。同会话的在途请求被取消替换。
func (s *ResilientService) Regenerate(ctx context.Context, req *RegenerateRequest) (*SendResponse, error) {
	if req.ConversationID == "" {
		return nil, errors.ErrConversationNotFound
	}

	sendReq := req.toSendRequest()
	sendReq.Messages = trimTrailingAssistant(sendReq.Messages)
	return s.Send(ctx, sendReq)
}

// Abort 中止指定会话的在途请求
func (s *ResilientService) Abort(conversationID string) bool {
	aborted := s.registry.abort(conversationID)
	if aborted {
		s.metrics.RecordAbort(context.Background())
	}
	return aborted
}

// Close 释放底层资源
func (s *ResilientService) Close() error {
	if err := s.recorder.Close(); err != nil {
		s.logger.Warn("failed to close audit recorder", "error", err)
	}
	return s.base.Close()
}

// filterRestricted 过滤权限禁止的元素。数据查看被关闭时，
// 数据承载类元素整体出局，只有页面骨架可进入提示词。
func filterRestricted(elements []snapshot.ContentElement, perms *snapshot.Permissions) []snapshot.ContentElement {
	result := make([]snapshot.ContentElement, 0, len(elements))
	for _, element := range elements {
		if perms.IsRestricted(element.ID) {
			continue
		}
		if !perms.CanViewData && element.CarriesData() {
			continue
		}
		result = append(result, element)
	}
	return result
}

// capVisualizations 限制可视化类元素的数量，保持原有顺序
func capVisualizations(elements []snapshot.ContentElement, max int) []snapshot.ContentElement {
	if max <= 0 {
		return elements
	}

	count := 0
	result := make([]snapshot.ContentElement, 0, len(elements))
	for _, element := range elements {
		if element.Type == snapshot.ElementVisualization {
			if count >= max {
				continue
			}
			count++
		}
		result = append(result, element)
	}
	return result
}

// 编译时接口检查
var _ Service = (*ResilientService)(nil)
