// Package metrics exposes prometheus counters for upstream generation work.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
	OutcomeFallback = "fallback"
)

// Collector groups the service metrics. All methods are safe on a nil receiver
// so components can run without metrics wired.
type Collector struct {
	registry *prometheus.Registry

	tasksTotal        *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
	pollAttemptsTotal *prometheus.CounterVec
	compositingTotal  *prometheus.CounterVec
	enhancementsTotal *prometheus.CounterVec
	generationsTotal  *prometheus.CounterVec
	creditsCacheTotal *prometheus.CounterVec
}

// NewCollector registers every metric on a dedicated registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Upstream generation tasks by terminal outcome",
		}, []string{"model", "family", "outcome"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time from task creation to terminal state",
			Buckets:   []float64{5, 10, 20, 40, 60, 120, 180, 270},
		}, []string{"model", "family"}),
		pollAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Status requests issued while polling",
		}, []string{"family"}),
		compositingTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compositing_total",
			Help:      "Ad overlay compositing attempts",
		}, []string{"outcome"}),
		enhancementsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enhancements_total",
			Help:      "Prompt enhancement attempts",
		}, []string{"outcome"}),
		generationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation requests by mode and final record status",
		}, []string{"mode", "status"}),
		creditsCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_cache_total",
			Help:      "Credits balance lookups by cache result",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) ObserveTask(model, family, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.tasksTotal.WithLabelValues(model, family, outcome).Inc()
	c.taskDuration.WithLabelValues(model, family).Observe(elapsed.Seconds())
}

func (c *Collector) IncPollAttempt(family string) {
	if c == nil {
		return
	}
	c.pollAttemptsTotal.WithLabelValues(family).Inc()
}

func (c *Collector) IncCompositing(outcome string) {
	if c == nil {
		return
	}
	c.compositingTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) IncEnhancement(outcome string) {
	if c == nil {
		return
	}
	c.enhancementsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) IncGeneration(mode, status string) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(mode, status).Inc()
}

func (c *Collector) IncCreditsCache(result string) {
	if c == nil {
		return
	}
	c.creditsCacheTotal.WithLabelValues(result).Inc()
}
