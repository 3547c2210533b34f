package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// =============================================================================
// 📈 上游调用 OTel 指标
// =============================================================================

// UpstreamMeter 以 OTel instrument 记录 embed / chat / reset 上游调用，
// 启用遥测时经 OTLP metric 导出器上报。
type UpstreamMeter struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// Meter 返回全局 provider 上的 embedgate meter
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// NewUpstreamMeter 在给定 meter 上创建上游调用计数器与耗时直方图。
// meter 为 nil 时使用全局 provider。
func NewUpstreamMeter(meter metric.Meter) (*UpstreamMeter, error) {
	if meter == nil {
		meter = Meter()
	}

	calls, err := meter.Int64Counter("embedgate.upstream.calls",
		metric.WithDescription("Upstream calls made by the gateway"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create upstream calls counter: %w", err)
	}

	duration, err := meter.Float64Histogram("embedgate.upstream.duration",
		metric.WithDescription("Upstream call duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("create upstream duration histogram: %w", err)
	}

	return &UpstreamMeter{calls: calls, duration: duration}, nil
}

// RecordUpstreamCall 记录一次上游调用
func (m *UpstreamMeter) RecordUpstreamCall(ctx context.Context, operation string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	)
	m.calls.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}
