// Package llm 提供聊天后端传输层的统一接口
package llm

import (
	"context"

	"github.com/easyops/dashchat-go/pkg/core/message"
)

// Provider 定义聊天后端接口
//
// 统一 OpenAI 及各类兼容网关（DeepSeek、vLLM 等通过 BaseURL 接入）。
type Provider interface {
	// Generate 生成响应（非流式）
	Generate(ctx context.Context, req Request) (Response, error)

	// GenerateStream 生成响应（流式）
	//
	// 返回两个 channel：
	//   - <-chan StreamChunk: 流式响应块
	//   - <-chan error: 错误通道（最多一个错误）
	GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error)

	// Name 返回提供商名称
	Name() string

	// Model 返回当前模型名称
	Model() string

	// Close 关闭客户端连接
	Close() error
}

// Request 聊天请求
type Request struct {
	// Messages 消息历史
	Messages []message.Message
	// Temperature 温度参数（可选）
	Temperature *float64
	// MaxTokens 最大输出 token（可选）
	MaxTokens *int
	// Stop 停止序列（可选）
	Stop []string
}

// Response 聊天响应
type Response struct {
	// ID 响应标识
	ID string `json:"id"`
	// Content 响应文本内容
	Content string `json:"content"`
	// FinishReason 结束原因
	// 值: "stop", "length", "content_filter"
	FinishReason string `json:"finish_reason"`
}

// StreamChunk 流式响应块
type StreamChunk struct {
	// Content 内容片段
	Content string `json:"content"`
	// Done 是否完成
	Done bool `json:"done"`
	// FinishReason 结束原因（当 Done=true 时）
	FinishReason string `json:"finish_reason,omitempty"`
}
