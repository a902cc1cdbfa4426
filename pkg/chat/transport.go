package chat

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easyops/dashchat-go/pkg/core/errors"
	"github.com/easyops/dashchat-go/pkg/core/llm"
	"github.com/easyops/dashchat-go/pkg/core/message"
	"github.com/easyops/dashchat-go/pkg/observe"
	"github.com/easyops/dashchat-go/pkg/stream"
)

// TransportService 是基础聊天传输：直接调用 LLM 后端，
// 不做任何上下文增强，快照参数被忽略。
// 流式结果以线格式事件流的形式返回，供上层重建。
type TransportService struct {
	provider llm.Provider
	registry *sessionRegistry
	timeout  time.Duration
	logger   observe.Logger
}

// TransportOption 配置 TransportService
type TransportOption func(*TransportService)

// WithTransportTimeout 设置非流式请求的整体超时
func WithTransportTimeout(d time.Duration) TransportOption {
	return func(s *TransportService) {
		s.timeout = d
	}
}

// WithTransportLogger 设置日志
func WithTransportLogger(logger observe.Logger) TransportOption {
	return func(s *TransportService) {
		s.logger = logger
	}
}

// NewTransportService 创建基础聊天传输
func NewTransportService(provider llm.Provider, opts ...TransportOption) *TransportService {
	s := &TransportService{
		provider: provider,
		registry: newSessionRegistry(),
		logger:   observe.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send 发送一轮对话
func (s *TransportService) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	interactionID := uuid.NewString()

	ctx, cancel := context.WithCancel(ctx)
	gen := s.registry.register(conversationID, cancel)

	if !req.Stream {
		defer func() {
			s.registry.remove(conversationID, gen)
			cancel()
		}()
		return s.sendBlocking(ctx, req, conversationID, interactionID)
	}

	return s.sendStreaming(ctx, req, conversationID, interactionID, gen, cancel)
}

// sendBlocking 非流式发送
func (s *TransportService) sendBlocking(ctx context.Context, req *SendRequest, conversationID, interactionID string) (*SendResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.provider.Generate(ctx, llm.Request{Messages: req.Messages})
	if err != nil {
		return nil, err
	}

	assistant := message.NewAssistantMessage(resp.Content)
	assistant.ID = resp.ID

	messages := make([]message.Message, 0, len(req.Messages)+1)
	messages = append(messages, req.Messages...)
	messages = append(messages, assistant)

	return &SendResponse{
		Messages:       messages,
		ConversationID: conversationID,
		InteractionID:  interactionID,
	}, nil
}

// sendStreaming 流式发送：把后端增量编码为线格式事件流。
// 注册的取消句柄存活到流结束，期间 Abort 可随时中断。
func (s *TransportService) sendStreaming(ctx context.Context, req *SendRequest, conversationID, interactionID string, gen uint64, cancel context.CancelFunc) (*SendResponse, error) {
	pr, pw := io.Pipe()
	chunkCh, errCh := s.provider.GenerateStream(ctx, llm.Request{Messages: req.Messages})

	history := make([]message.Message, len(req.Messages))
	copy(history, req.Messages)

	go func() {
		defer pw.Close()
		defer func() {
			s.registry.remove(conversationID, gen)
			cancel()
		}()

		writeEvent(pw, stream.Event{Type: stream.EventStart, InteractionID: interactionID})

		var accumulated strings.Builder
		for chunk := range chunkCh {
			if chunk.Content != "" {
				accumulated.WriteString(chunk.Content)
				if err := writeEvent(pw, stream.Event{Type: stream.EventContent, Content: chunk.Content}); err != nil {
					// 读取方已关闭
					return
				}
			}
			if chunk.Done {
				messages := append(history, message.NewAssistantMessage(accumulated.String()))
				writeEvent(pw, stream.Event{Type: stream.EventComplete, Messages: messages})
				writeSentinel(pw)
				return
			}
		}

		if err, ok := <-errCh; ok && err != nil {
			if errors.IsCanceled(err) {
				// 中止的流不合成终结事件，直接关闭
				return
			}
			s.logger.Warn("stream transport failed",
				"conversation_id", conversationID,
				"error", err,
			)
			writeEvent(pw, stream.Event{Type: stream.EventError, Error: err.Error()})
		}
	}()

	return &SendResponse{
		ConversationID: conversationID,
		InteractionID:  interactionID,
		Stream:         pr,
	}, nil
}

// Regenerate 重新生成最后一轮回答
func (s *TransportService) Regenerate(ctx context.Context, req *RegenerateRequest) (*SendResponse, error) {
	if req.ConversationID == "" {
		return nil, errors.ErrConversationNotFound
	}

	sendReq := req.toSendRequest()
	sendReq.Messages = trimTrailingAssistant(sendReq.Messages)
	return s.Send(ctx, sendReq)
}

// Abort 中止指定会话的在途请求
func (s *TransportService) Abort(conversationID string) bool {
	return s.registry.abort(conversationID)
}

// Close 释放底层资源
func (s *TransportService) Close() error {
	return s.provider.Close()
}

// trimTrailingAssistant 去掉尾部的助手消息，使模型重新生成回答
func trimTrailingAssistant(messages []message.Message) []message.Message {
	end := len(messages)
	for end > 0 && messages[end-1].Role == message.RoleAssistant {
		end--
	}
	result := make([]message.Message, end)
	copy(result, messages[:end])
	return result
}

// writeEvent 把事件编码为一条带前缀的线格式行
func writeEvent(w io.Writer, ev stream.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte("data: " + string(payload) + "\n\n"))
	return err
}

// writeSentinel 写入流结束哨兵行
func writeSentinel(w io.Writer) {
	_, _ = w.Write([]byte("data: [DONE]\n\n"))
}

// 编译时接口检查
var _ Service = (*TransportService)(nil)
