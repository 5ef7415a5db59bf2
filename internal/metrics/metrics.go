// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ldl"

// PromObs implements the source and sink observers.
type PromObs struct {
	pulled        *prometheus.CounterVec
	pullFailures  *prometheus.CounterVec
	written       prometheus.Counter
	writtenPoints prometheus.Counter
	writeFailures prometheus.Counter
	activeSources prometheus.Gauge
	queueLength   prometheus.Gauge
}

// NewPromObs creates the collectors and registers them with reg.
func NewPromObs(reg prometheus.Registerer) *PromObs {
	p := &PromObs{
		pulled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_pulls_total",
			Help:      "Samples pulled from data services and queued.",
		}, []string{"measurement"}),
		pullFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_pull_failures_total",
			Help:      "GetData calls that failed or returned no fields.",
		}, []string{"measurement"}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_batches_written_total",
			Help:      "Batches persisted by the active writer.",
		}),
		writtenPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_points_written_total",
			Help:      "Points persisted by the active writer.",
		}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_write_failures_total",
			Help:      "Batches dropped because the writer failed.",
		}),
		activeSources: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sources",
			Help:      "Sources currently registered with the recorder.",
		}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Batches waiting in the shared queue.",
		}),
	}

	reg.MustRegister(p.pulled, p.pullFailures, p.written, p.writtenPoints,
		p.writeFailures, p.activeSources, p.queueLength)
	return p
}

func (p *PromObs) Pulled(measurement string) {
	p.pulled.WithLabelValues(measurement).Inc()
}

func (p *PromObs) PullFailed(measurement string) {
	p.pullFailures.WithLabelValues(measurement).Inc()
}

func (p *PromObs) Written(points int) {
	p.written.Inc()
	p.writtenPoints.Add(float64(points))
}

func (p *PromObs) WriteFailed() {
	p.writeFailures.Inc()
}

func (p *PromObs) SetActiveSources(n int) {
	p.activeSources.Set(float64(n))
}

func (p *PromObs) SetQueueLength(n int) {
	p.queueLength.Set(float64(n))
}
