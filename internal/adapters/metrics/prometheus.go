// Package metrics exposes dispatcher events as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bft-labs/chatship/internal/ports"
)

const namespace = "chatship"

// Flush outcome label values.
const (
	OutcomeDelivered   = "delivered"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"
)

// DispatchMetrics implements ports.EventEmitter on top of Prometheus collectors.
type DispatchMetrics struct {
	reg prometheus.Registerer

	FlushesTotal      *prometheus.CounterVec
	MessagesDelivered prometheus.Counter
	MessagesDiscarded prometheus.Counter
	BytesDelivered    prometheus.Counter
	FlushDuration     prometheus.Histogram
	ResumeAt          prometheus.Gauge
}

var _ ports.EventEmitter = (*DispatchMetrics)(nil)

// NewDispatchMetrics creates and registers the dispatcher metrics on reg,
// labelled with the provider name. A nil reg uses the default registerer.
func NewDispatchMetrics(reg prometheus.Registerer, provider string) *DispatchMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg = prometheus.WrapRegistererWith(prometheus.Labels{"provider": provider}, reg)
	factory := promauto.With(reg)

	return &DispatchMetrics{
		reg: reg,
		FlushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "flushes_total",
			Help:      "Total number of flush attempts by outcome.",
		}, []string{"outcome"}), // outcome: delivered, rate_limited, failed
		MessagesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "messages_delivered_total",
			Help:      "Total number of messages accepted by the provider.",
		}),
		MessagesDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "messages_discarded_total",
			Help:      "Total number of messages dropped after giving up.",
		}),
		BytesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "bytes_delivered_total",
			Help:      "Total payload bytes accepted by the provider.",
		}),
		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "flush_duration_seconds",
			Help:      "Duration of successful provider calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		ResumeAt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "resume_at_seconds",
			Help:      "Unix time before which no flush may start, as last reported by the provider.",
		}),
	}
}

// ObservePending registers a gauge reading the pending batch size from fn.
func (m *DispatchMetrics) ObservePending(fn func() int) {
	promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dispatch",
		Name:      "pending_messages",
		Help:      "Number of messages in the pending batch.",
	}, func() float64 { return float64(fn()) })
}

func (m *DispatchMetrics) OnFlushSuccess(messages, bytes int, took time.Duration) {
	m.FlushesTotal.WithLabelValues(OutcomeDelivered).Inc()
	m.MessagesDelivered.Add(float64(messages))
	m.BytesDelivered.Add(float64(bytes))
	m.FlushDuration.Observe(took.Seconds())
}

func (m *DispatchMetrics) OnRateLimited(resumeAt time.Time, messages int) {
	m.FlushesTotal.WithLabelValues(OutcomeRateLimited).Inc()
	m.ResumeAt.Set(float64(resumeAt.UnixMilli()) / 1e3)
}

func (m *DispatchMetrics) OnFlushError(err error, messages, attempt int) {
	m.FlushesTotal.WithLabelValues(OutcomeFailed).Inc()
}

func (m *DispatchMetrics) OnDiscard(messages []string, attempts int) {
	m.MessagesDiscarded.Add(float64(len(messages)))
}
