// Package metrics exposes Prometheus collectors for scheduling and publishing.
//
// All recording methods are nil-safe so components can run without metrics
// in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "herald"

// Publish modes
const (
	ModeImmediate = "immediate"
	ModeScheduled = "scheduled"
)

// Generation outcomes
const (
	GenerationOK       = "ok"
	GenerationFallback = "parse_fallback"
	GenerationError    = "error"
)

// Metrics holds every collector the service records to.
type Metrics struct {
	registry *prometheus.Registry

	PostsScheduled     *prometheus.CounterVec
	PostsCancelled     prometheus.Counter
	PublishAttempts    *prometheus.CounterVec
	PublishDuration    *prometheus.HistogramVec
	Generations        *prometheus.CounterVec
	Ticks              prometheus.Counter
	DuePosts           prometheus.Counter
	Rescheduled        *prometheus.CounterVec
	TickDuration       prometheus.Histogram
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
}

// QueueReader reports scheduler occupancy.
type QueueReader interface {
	Len() int
	InFlight() int
}

// New creates the collectors and registers them on a fresh registry along
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		PostsScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_scheduled_total",
			Help:      "Posts registered for deferred publishing",
		}, []string{"platform", "frequency"}),
		PostsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_cancelled_total",
			Help:      "Scheduled posts cancelled by an operator",
		}),
		PublishAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_attempts_total",
			Help:      "Publish calls by platform, mode and outcome",
		}, []string{"platform", "mode", "outcome"}),
		PublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Latency of publish calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Content generation calls by outcome",
		}, []string{"outcome"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Dispatcher ticks executed",
		}),
		DuePosts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_due_posts_total",
			Help:      "Posts drained as due",
		}),
		Rescheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_rescheduled_total",
			Help:      "Recurring posts re-registered after firing",
		}, []string{"frequency"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_tick_duration_seconds",
			Help:      "Time spent dispatching one tick",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publisher_breaker_state",
			Help:      "Publisher circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"platform"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publisher_breaker_transitions_total",
			Help:      "Publisher circuit breaker state transitions",
		}, []string{"platform", "from", "to"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PostsScheduled,
		m.PostsCancelled,
		m.PublishAttempts,
		m.PublishDuration,
		m.Generations,
		m.Ticks,
		m.DuePosts,
		m.Rescheduled,
		m.TickDuration,
		m.BreakerState,
		m.BreakerTransitions,
	)
	return m
}

// WatchQueue exports pending and in-flight counts read from q at scrape time.
func (m *Metrics) WatchQueue(q QueueReader) {
	if m == nil || q == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_pending_posts",
			Help:      "Posts waiting for their fire time",
		}, func() float64 { return float64(q.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_inflight_posts",
			Help:      "Posts drained and not yet rescheduled or released",
		}, func() float64 { return float64(q.InFlight()) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// IncScheduled counts a post registered with the scheduler.
func (m *Metrics) IncScheduled(platform, frequency string) {
	if m == nil || m.PostsScheduled == nil {
		return
	}
	m.PostsScheduled.WithLabelValues(platform, frequency).Inc()
}

// IncCancelled counts a cancelled scheduled post.
func (m *Metrics) IncCancelled() {
	if m == nil || m.PostsCancelled == nil {
		return
	}
	m.PostsCancelled.Inc()
}

// ObservePublish records one publish attempt.
func (m *Metrics) ObservePublish(platform, mode string, err error, elapsed time.Duration) {
	if m == nil || m.PublishAttempts == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	m.PublishAttempts.WithLabelValues(platform, mode, outcome).Inc()
	m.PublishDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
}

// IncGeneration counts a generation call by outcome.
func (m *Metrics) IncGeneration(outcome string) {
	if m == nil || m.Generations == nil {
		return
	}
	m.Generations.WithLabelValues(outcome).Inc()
}

// ObserveTick records a completed dispatcher tick.
func (m *Metrics) ObserveTick(due int, elapsed time.Duration) {
	if m == nil || m.Ticks == nil {
		return
	}
	m.Ticks.Inc()
	m.DuePosts.Add(float64(due))
	m.TickDuration.Observe(elapsed.Seconds())
}

// IncRescheduled counts a recurring post put back in the store.
func (m *Metrics) IncRescheduled(frequency string) {
	if m == nil || m.Rescheduled == nil {
		return
	}
	m.Rescheduled.WithLabelValues(frequency).Inc()
}

// RecordBreakerTransition updates the breaker gauge and transition counter.
// state values follow the BreakerState gauge help text.
func (m *Metrics) RecordBreakerTransition(platform, from, to string, state float64) {
	if m == nil || m.BreakerState == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(platform, from, to).Inc()
	m.BreakerState.WithLabelValues(platform).Set(state)
}
