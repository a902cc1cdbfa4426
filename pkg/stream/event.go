// Package stream 实现聊天后端流式应答的重建。
//
// 后端以行分隔的 SSE 风格事件推送增量应答；本包把任意切分的
// 字节块还原为事件序列，并重建出累积内容与唯一的终结结果。
package stream

import (
	"encoding/json"
	"strings"

	"github.com/easyops/dashchat-go/pkg/core/message"
)

// EventType 表示流事件的类型
type EventType string

const (
	// EventStart 流开始事件
	EventStart EventType = "start"
	// EventContent 增量内容事件
	EventContent EventType = "content"
	// EventComplete 终结事件：携带权威的最终消息列表
	EventComplete EventType = "complete"
	// EventError 终结事件：携带失败原因
	EventError EventType = "error"
)

// Event 是从线上解码的单个流事件。
// content 事件携带增量文本；complete 携带最终消息列表与可选
// 来源；error 携带终结失败原因。
type Event struct {
	// Type 事件类型
	Type EventType `json:"type"`
	// Content 增量内容（type=content）
	Content string `json:"content,omitempty"`
	// Messages 最终消息列表（type=complete）
	Messages []message.Message `json:"messages,omitempty"`
	// Sources 来源/引用列表（type=complete，可选）
	Sources []message.Source `json:"sources,omitempty"`
	// Error 失败原因（type=error）
	Error string `json:"error,omitempty"`
	// InteractionID 交互标识（type=start，可选）
	InteractionID string `json:"interaction_id,omitempty"`
	// Raw 标记事件由非结构化文本行降级而来
	Raw bool `json:"-"`
}

const (
	// eventPrefix 是结构化事件行的前缀
	eventPrefix = "data:"
	// doneSentinel 是流结束哨兵行，作为无操作的续行标记处理
	doneSentinel = "[DONE]"
)

// decodeLine 把一行文本解码为事件。
//
// 带前缀的行去掉前缀后按 JSON 解析；解析失败的行降级为携带
// 原始文本的 content 事件，而不是被丢弃，使不合规的后端退化
// 为纯文本而不是悄悄丢数据。返回 nil 表示该行无需处理
// （空行或结束哨兵）。
func decodeLine(line string) *Event {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return nil
	}

	payload := line
	prefixed := false
	if strings.HasPrefix(line, eventPrefix) {
		payload = strings.TrimPrefix(line, eventPrefix)
		payload = strings.TrimPrefix(payload, " ")
		prefixed = true
	}

	if payload == doneSentinel {
		return nil
	}

	if prefixed {
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err == nil && ev.Type != "" {
			return &ev
		}
		// 前缀行解析失败：按原始文本内容处理
		return &Event{Type: EventContent, Content: payload, Raw: true}
	}

	// 无前缀的纯文本行
	return &Event{Type: EventContent, Content: line, Raw: true}
}
