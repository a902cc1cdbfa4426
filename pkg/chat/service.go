// Package chat 组合基础聊天传输与上下文增强能力。
//
// 基础传输（TransportService）负责真实的网络调用；ResilientService
// 以显式组合的方式包装基础传输，叠加上下文增强、流式重建、
// 超时与无上下文回退。两者实现同一个能力接口，调用方只依赖接口。
package chat

import (
	"context"
	"io"

	"github.com/easyops/dashchat-go/pkg/core/message"
	"github.com/easyops/dashchat-go/pkg/snapshot"
	"github.com/easyops/dashchat-go/pkg/stream"
)

// Service 定义聊天服务能力接口
type Service interface {
	// Send 发送一轮对话。snapshot 可选；返回最终消息列表，
	// 流式请求另附未消费的原始事件流。
	Send(ctx context.Context, req *SendRequest) (*SendResponse, error)

	// Regenerate 针对既有会话重新生成最后一轮回答。
	Regenerate(ctx context.Context, req *RegenerateRequest) (*SendResponse, error)

	// Abort 中止指定会话的在途请求。
	// 返回是否存在可中止的在途请求。
	Abort(conversationID string) bool

	// Close 释放底层资源
	Close() error
}

// SendRequest 一次发送请求
type SendRequest struct {
	// Messages 当前会话的消息历史，最后一条应为用户消息
	Messages []message.Message
	// ConversationID 会话标识，为空时创建新会话
	ConversationID string
	// Snapshot 当前 UI 快照（可选），仅在启用上下文增强时生效
	Snapshot *snapshot.Snapshot
	// Stream 是否以流式返回
	Stream bool
	// OnDelta 每个增量内容到达时的回调（流式）
	OnDelta stream.DeltaHandler
	// OnEvent 每个流事件的原样转发回调（流式）
	OnEvent stream.EventHandler
}

// RegenerateRequest 一次重新生成请求
type RegenerateRequest struct {
	// ConversationID 会话标识，必填
	ConversationID string
	// Messages 会话消息历史
	Messages []message.Message
	// Snapshot 当前 UI 快照（可选）
	Snapshot *snapshot.Snapshot
	// Stream 是否以流式返回
	Stream bool
	// OnDelta 增量内容回调
	OnDelta stream.DeltaHandler
	// OnEvent 事件转发回调
	OnEvent stream.EventHandler
}

// SendResponse 一次发送的结果
type SendResponse struct {
	// Messages 最终消息列表
	Messages []message.Message
	// Sources 来源/引用列表
	Sources []message.Source
	// ConversationID 会话标识
	ConversationID string
	// InteractionID 本次交互标识
	InteractionID string
	// Stream 原始事件流（仅当调用方希望自行重建时非 nil）。
	// ResilientService 在返回前总会消费掉该流。
	Stream io.ReadCloser
}

// toSendRequest 把重新生成请求转为发送请求
func (r *RegenerateRequest) toSendRequest() *SendRequest {
	return &SendRequest{
		Messages:       r.Messages,
		ConversationID: r.ConversationID,
		Snapshot:       r.Snapshot,
		Stream:         r.Stream,
		OnDelta:        r.OnDelta,
		OnEvent:        r.OnEvent,
	}
}
