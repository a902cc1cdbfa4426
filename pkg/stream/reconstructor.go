package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/easyops/dashchat-go/pkg/core/errors"
	"github.com/easyops/dashchat-go/pkg/core/message"
)

// State 表示重建器的状态
type State int

const (
	// StateAwaitingBuffer 等待首个字节块
	StateAwaitingBuffer State = iota
	// StateBuffering 缓冲中：存在未按行终结的尾部数据
	StateBuffering
	// StateComplete 成功终结
	StateComplete
	// StateFailed 失败终结
	StateFailed
)

// Result 是一条流的终结结果。
type Result struct {
	// Messages 最终消息列表
	Messages []message.Message
	// Sources 来源/引用列表
	Sources []message.Source
	// InteractionID 交互标识（如 start 事件携带）
	InteractionID string
	// Synthesized 标记结果由累积文本合成，而非显式 complete 事件
	Synthesized bool
}

// DeltaHandler 在每个增量内容到达时被立即调用，用于实时展示。
type DeltaHandler func(delta string)

// EventHandler 在每个解码事件被分发时调用，事件按到达顺序原样转发。
type EventHandler func(event Event)

// Reconstructor 把任意切分的字节流重建为累积内容加单一终结结果。
//
// 核心正确性约束：事件边界绝不依赖传输层对字节的切分方式。
// 每个到达的块先追加进内部缓冲，按行终止符切分；没有终止符的
// 尾部残行保留到下一个块。每条流只交付一个终结结果：一旦出现
// complete 或 error，后续输入一律忽略。
type Reconstructor struct {
	state         State
	buf           []byte
	accumulated   strings.Builder
	interactionID string

	onDelta DeltaHandler
	onEvent EventHandler

	result *Result
	err    error
}

// Option 配置 Reconstructor。
type Option func(*Reconstructor)

// WithDeltaHandler 设置增量内容回调。
func WithDeltaHandler(fn DeltaHandler) Option {
	return func(r *Reconstructor) {
		r.onDelta = fn
	}
}

// WithEventHandler 设置事件转发回调。
func WithEventHandler(fn EventHandler) Option {
	return func(r *Reconstructor) {
		r.onEvent = fn
	}
}

// NewReconstructor 创建新的 Reconstructor。
func NewReconstructor(opts ...Option) *Reconstructor {
	r := &Reconstructor{state: StateAwaitingBuffer}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State 返回当前状态。
func (r *Reconstructor) State() State {
	return r.state
}

// Done 返回流是否已终结。
func (r *Reconstructor) Done() bool {
	return r.state == StateComplete || r.state == StateFailed
}

// Accumulated 返回到目前为止累积的内容。
func (r *Reconstructor) Accumulated() string {
	return r.accumulated.String()
}

// Feed 处理一个到达的字节块。块可以在任意位置切断，
// 包括一行甚至一个 JSON 值的中间。流终结后的输入被忽略。
func (r *Reconstructor) Feed(chunk []byte) {
	if r.Done() {
		return
	}

	r.buf = append(r.buf, chunk...)

	for {
		idx := bytes.IndexByte(r.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(r.buf[:idx])
		r.buf = r.buf[idx+1:]

		if ev := decodeLine(line); ev != nil {
			r.dispatch(ev)
			if r.Done() {
				r.buf = nil
				return
			}
		}
	}

	if len(r.buf) > 0 {
		r.state = StateBuffering
	}
}

// dispatch 是事件分发的唯一入口，对事件类型做穷尽匹配。
func (r *Reconstructor) dispatch(ev *Event) {
	if r.onEvent != nil {
		r.onEvent(*ev)
	}

	switch ev.Type {
	case EventStart:
		if ev.InteractionID != "" {
			r.interactionID = ev.InteractionID
		}

	case EventContent:
		if ev.Content == "" {
			return
		}
		r.accumulated.WriteString(ev.Content)
		if r.onDelta != nil {
			r.onDelta(ev.Content)
		}

	case EventComplete:
		// complete 是权威的：其消息列表取代累积内容
		r.result = &Result{
			Messages:      ev.Messages,
			Sources:       ev.Sources,
			InteractionID: r.interactionID,
		}
		r.state = StateComplete

	case EventError:
		reason := ev.Error
		if reason == "" {
			reason = "unspecified stream error"
		}
		r.err = fmt.Errorf("%w: %s", errors.ErrStreamProtocol, reason)
		r.state = StateFailed

	default:
		// 未知的结构化类型：与不合规行同样降级为原始文本
		if ev.Content != "" {
			r.accumulated.WriteString(ev.Content)
			if r.onDelta != nil {
				r.onDelta(ev.Content)
			}
		}
	}
}

// Finish 在底层传输关闭后取出终结结果。
//
// 若流从未发送 complete/error：累积内容非空时合成一个包含该
// 内容的完成结果（宁可交付部分答案也不丢弃）；累积为空时报告
// 无结果，绝不凭空编造消息。Finish 幂等，重复调用返回相同结果。
func (r *Reconstructor) Finish() (*Result, error) {
	switch r.state {
	case StateComplete:
		return r.result, nil
	case StateFailed:
		return nil, r.err
	}

	// 缓冲中可能残留最后一行未终结的数据
	if len(r.buf) > 0 {
		if ev := decodeLine(string(r.buf)); ev != nil {
			r.dispatch(ev)
		}
		r.buf = nil
		if r.state == StateComplete {
			return r.result, nil
		}
		if r.state == StateFailed {
			return nil, r.err
		}
	}

	if r.accumulated.Len() > 0 {
		r.result = &Result{
			Messages:      []message.Message{message.NewAssistantMessage(r.accumulated.String())},
			InteractionID: r.interactionID,
			Synthesized:   true,
		}
		r.state = StateComplete
		return r.result, nil
	}

	r.err = errors.ErrStreamClosed
	r.state = StateFailed
	return nil, r.err
}

// Run 从 reader 读取到流关闭并返回终结结果。
// ctx 取消时立即停止读取且不合成任何完成结果，
// 取消作为独立的非失败终结向上传递。
func (r *Reconstructor) Run(ctx context.Context, reader io.Reader) (*Result, error) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil, errors.ErrAborted
		default:
		}

		n, err := reader.Read(buf)
		if n > 0 {
			r.Feed(buf[:n])
			if r.Done() {
				break
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// 连接中断：交由 Finish 决定是否能从累积内容合成结果
			break
		}
	}

	// 取消可能发生在 Read 阻塞期间：传输层随后关闭管道，Read 以
	// EOF 返回。此时不得从累积内容合成完成结果，中止的流没有终结
	// 答案。已经显式终结的流不受影响。
	if ctx.Err() != nil && !r.Done() {
		return nil, errors.ErrAborted
	}

	return r.Finish()
}
