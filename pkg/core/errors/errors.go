// Package errors 定义上下文增强流水线的通用错误类型
package errors

import (
	"context"
	"errors"
	"fmt"
)

// 通用错误
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrContextCanceled 上下文被取消
	ErrContextCanceled = errors.New("context canceled")
)

// 增强（augmentation）相关错误：评分或提示词装配失败。
// 这类错误必须在本地恢复，消息以未修改形式继续发送。
var (
	// ErrScoringFailed 内容元素评分失败
	ErrScoringFailed = errors.New("content scoring failed")
	// ErrAssemblyFailed 提示词装配失败
	ErrAssemblyFailed = errors.New("prompt assembly failed")
)

// 传输相关错误
var (
	// ErrRateLimited 请求被限速
	ErrRateLimited = errors.New("rate limited")
	// ErrTimeout 请求超时
	ErrTimeout = errors.New("request timeout")
	// ErrInvalidAPIKey API 密钥无效
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrModelNotFound 模型未找到
	ErrModelNotFound = errors.New("model not found")
	// ErrBackendUnavailable 后端不可用
	ErrBackendUnavailable = errors.New("chat backend unavailable")
)

// 流协议相关错误
var (
	// ErrStreamProtocol 流事件格式错误
	ErrStreamProtocol = errors.New("stream protocol violation")
	// ErrStreamClosed 流在产生任何内容前关闭
	ErrStreamClosed = errors.New("stream closed without result")
	// ErrStreamTerminated 流已终结，不再接受输入
	ErrStreamTerminated = errors.New("stream already terminated")
)

// 会话相关错误
var (
	// ErrConversationNotFound 会话未找到
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrAborted 请求被调用方中止。注意：中止是一种独立的终结状态，
	// 不应当作失败上报给用户。
	ErrAborted = errors.New("request aborted")
)

// WrapError 包装错误并添加上下文信息
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrBackendUnavailable)
}

// IsAugmentation 判断错误是否属于增强失败（可本地恢复）
func IsAugmentation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrScoringFailed) ||
		errors.Is(err, ErrAssemblyFailed)
}

// IsCanceled 判断错误是否由取消/中止引起
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAborted) ||
		errors.Is(err, ErrContextCanceled) ||
		errors.Is(err, context.Canceled)
}

// IsFatal 判断错误是否为致命错误（不可恢复）
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrModelNotFound) ||
		errors.Is(err, ErrInvalidConfig)
}
