package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称
const (
	metricAugmentations        = "dashchat.augmentations.total"
	metricAugmentationFailures = "dashchat.augmentation_failures.total"
	metricFallbacks            = "dashchat.fallbacks.total"
	metricStreamEvents         = "dashchat.stream_events.total"
	metricAborts               = "dashchat.aborts.total"
)

// Metrics 上下文增强流水线的指标集合
type Metrics struct {
	augmentations        metric.Int64Counter
	augmentationFailures metric.Int64Counter
	fallbacks            metric.Int64Counter
	streamEvents         metric.Int64Counter
	aborts               metric.Int64Counter
}

// NewMetrics 创建指标集合。meter 为 nil 时使用全局 Meter。
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter("github.com/easyops/dashchat-go")
	}

	m := &Metrics{}
	var err error

	if m.augmentations, err = meter.Int64Counter(metricAugmentations,
		metric.WithDescription("Number of messages augmented with dashboard context")); err != nil {
		return nil, err
	}
	if m.augmentationFailures, err = meter.Int64Counter(metricAugmentationFailures,
		metric.WithDescription("Number of augmentation attempts recovered locally")); err != nil {
		return nil, err
	}
	if m.fallbacks, err = meter.Int64Counter(metricFallbacks,
		metric.WithDescription("Number of requests retried without context")); err != nil {
		return nil, err
	}
	if m.streamEvents, err = meter.Int64Counter(metricStreamEvents,
		metric.WithDescription("Number of stream events dispatched")); err != nil {
		return nil, err
	}
	if m.aborts, err = meter.Int64Counter(metricAborts,
		metric.WithDescription("Number of aborted conversations")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordAugmentation 记录一次成功的上下文增强
func (m *Metrics) RecordAugmentation(ctx context.Context, app string) {
	if m == nil {
		return
	}
	m.augmentations.Add(ctx, 1, metric.WithAttributes(attribute.String("app", app)))
}

// RecordAugmentationFailure 记录一次被本地恢复的增强失败
func (m *Metrics) RecordAugmentationFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.augmentationFailures.Add(ctx, 1)
}

// RecordFallback 记录一次无上下文回退
func (m *Metrics) RecordFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1)
}

// RecordStreamEvent 记录一个流事件
func (m *Metrics) RecordStreamEvent(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	m.streamEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

// RecordAbort 记录一次会话中止
func (m *Metrics) RecordAbort(ctx context.Context) {
	if m == nil {
		return
	}
	m.aborts.Add(ctx, 1)
}
