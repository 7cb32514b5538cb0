package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Sink backed directly by client_golang collectors, an
// alternate backend to OTel for deployments scraping /metrics directly
// rather than running an OTel collector (config.metrics.backend ==
// "prometheus").
type Prometheus struct {
	reasonDuration *prometheus.HistogramVec
	reasonErrors   *prometheus.CounterVec
	actDuration    *prometheus.HistogramVec
	actErrors      *prometheus.CounterVec
	respondTotal   *prometheus.CounterVec
	iterationTotal *prometheus.CounterVec
}

// NewPrometheus constructs a Prometheus Sink and registers its collectors
// against reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		reasonDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "cogency_engine_reason_duration_seconds",
			Help: "Duration of Reason phase calls.",
		}, []string{"mode"}),
		reasonErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cogency_engine_reason_errors_total",
			Help: "Count of Reason phase errors.",
		}, []string{"mode"}),
		actDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "cogency_engine_act_duration_seconds",
			Help: "Duration of Act phase tool dispatch.",
		}, []string{"tool"}),
		actErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cogency_engine_act_errors_total",
			Help: "Count of Act phase tool errors.",
		}, []string{"tool"}),
		respondTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cogency_engine_respond_total",
			Help: "Count of Respond phase completions by stop reason.",
		}, []string{"stop_reason"}),
		iterationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cogency_engine_iterations_total",
			Help: "Count of Reason/Act iterations by task.",
		}, []string{"task_id"}),
	}

	reg.MustRegister(p.reasonDuration, p.reasonErrors, p.actDuration, p.actErrors, p.respondTotal, p.iterationTotal)
	return p
}

func (p *Prometheus) RecordReason(ctx context.Context, mode string, duration time.Duration, err error) {
	p.reasonDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err != nil {
		p.reasonErrors.WithLabelValues(mode).Inc()
	}
}

func (p *Prometheus) RecordAct(ctx context.Context, tool string, duration time.Duration, err error) {
	p.actDuration.WithLabelValues(tool).Observe(duration.Seconds())
	if err != nil {
		p.actErrors.WithLabelValues(tool).Inc()
	}
}

func (p *Prometheus) RecordRespond(ctx context.Context, stopReason string, duration time.Duration) {
	p.respondTotal.WithLabelValues(stopReason).Inc()
}

func (p *Prometheus) RecordIteration(ctx context.Context, taskID string, iteration int) {
	p.iterationTotal.WithLabelValues(taskID).Inc()
}
