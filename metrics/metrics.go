// Package metrics is the thin, no-op-safe observability seam the engine
// calls at phase boundaries (spec §2.1 ambient stack: "Metrics/observability
// hooks ... specified only as an optional seam the core calls"). The core
// never depends on a concrete backend; Sink is satisfied by a no-op, an
// OpenTelemetry-backed recorder, or a Prometheus-backed recorder.
package metrics

import (
	"context"
	"time"
)

// Sink is the phase-boundary recording contract the engine calls. Every
// method must tolerate a nil receiver's zero-value Sink implementation
// (NoOp) so wiring a Sink is always optional.
type Sink interface {
	RecordReason(ctx context.Context, mode string, duration time.Duration, err error)
	RecordAct(ctx context.Context, tool string, duration time.Duration, err error)
	RecordRespond(ctx context.Context, stopReason string, duration time.Duration)
	RecordIteration(ctx context.Context, taskID string, iteration int)
}

// NoOp is the default Sink: every call is a no-op, used whenever
// config.metrics.backend == "none".
type NoOp struct{}

func (NoOp) RecordReason(ctx context.Context, mode string, duration time.Duration, err error)  {}
func (NoOp) RecordAct(ctx context.Context, tool string, duration time.Duration, err error)      {}
func (NoOp) RecordRespond(ctx context.Context, stopReason string, duration time.Duration)       {}
func (NoOp) RecordIteration(ctx context.Context, taskID string, iteration int)                  {}
