package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OTel is a Sink backed by OpenTelemetry metric instruments, grounded on
// pkg/observability/recorder.go's PrometheusMetrics instrument set,
// narrowed to the engine's Reason/Act/Respond phase boundaries. It also
// holds the tracer passed to NewOTel; its Record methods create no spans.
type OTel struct {
	Tracer trace.Tracer // may be nil; not used by the Record methods

	reasonDuration metric.Float64Histogram
	reasonErrors   metric.Int64Counter
	actDuration    metric.Float64Histogram
	actErrors      metric.Int64Counter
	respondCounts  metric.Int64Counter
	iterationGauge metric.Int64Counter
}

// NewOTel constructs an OTel Sink from a meter, registering its
// instruments. Returns an error only if instrument registration fails.
func NewOTel(meter metric.Meter, tracer trace.Tracer) (*OTel, error) {
	reasonDuration, err := meter.Float64Histogram("cogency.engine.reason.duration")
	if err != nil {
		return nil, err
	}
	reasonErrors, err := meter.Int64Counter("cogency.engine.reason.errors")
	if err != nil {
		return nil, err
	}
	actDuration, err := meter.Float64Histogram("cogency.engine.act.duration")
	if err != nil {
		return nil, err
	}
	actErrors, err := meter.Int64Counter("cogency.engine.act.errors")
	if err != nil {
		return nil, err
	}
	respondCounts, err := meter.Int64Counter("cogency.engine.respond.count")
	if err != nil {
		return nil, err
	}
	iterationGauge, err := meter.Int64Counter("cogency.engine.iterations")
	if err != nil {
		return nil, err
	}

	return &OTel{
		Tracer:         tracer,
		reasonDuration: reasonDuration,
		reasonErrors:   reasonErrors,
		actDuration:    actDuration,
		actErrors:      actErrors,
		respondCounts:  respondCounts,
		iterationGauge: iterationGauge,
	}, nil
}

func (o *OTel) RecordReason(ctx context.Context, mode string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	o.reasonDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		o.reasonErrors.Add(ctx, 1, attrs)
	}
}

func (o *OTel) RecordAct(ctx context.Context, tool string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("tool", tool))
	o.actDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		o.actErrors.Add(ctx, 1, attrs)
	}
}

func (o *OTel) RecordRespond(ctx context.Context, stopReason string, duration time.Duration) {
	o.respondCounts.Add(ctx, 1, metric.WithAttributes(attribute.String("stop_reason", stopReason)))
}

func (o *OTel) RecordIteration(ctx context.Context, taskID string, iteration int) {
	o.iterationGauge.Add(ctx, 1, metric.WithAttributes(attribute.String("task_id", taskID)))
}
