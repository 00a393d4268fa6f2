// Package metrics exports pipeline telemetry to Prometheus.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for the search pipeline and HTTP layer.
type Observer interface {
	RecordStrategy(strategy string, duration time.Duration, hits int, err error)
	RecordBranch(branch string)
	RecordFallback(kind string)
	RecordRequest(route string, status int, duration time.Duration)
}

// PrometheusObserver exports pipeline metrics to Prometheus.
type PrometheusObserver struct {
	strategyDuration *prometheus.HistogramVec
	strategyErrors   *prometheus.CounterVec
	strategyHits     *prometheus.HistogramVec
	branches         *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// NewPrometheusObserver registers the pipeline metrics on reg
// (prometheus.DefaultRegisterer when nil). Re-registering reuses existing collectors.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "recall"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		strategyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "strategy_duration_seconds",
			Help:      "Latency of retrieval strategies.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
		strategyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_errors_total",
			Help:      "Retrieval strategies that failed or timed out and contributed no results.",
		}, []string{"strategy"}),
		strategyHits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "strategy_hits",
			Help:      "Candidates returned per retrieval strategy.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		}, []string{"strategy"}),
		branches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers produced, by synthesizer branch.",
		}, []string{"branch"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_fallbacks_total",
			Help:      "General answers that fell back instead of using model output.",
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	var err error
	if o.strategyDuration, err = register(reg, o.strategyDuration); err != nil {
		return nil, err
	}
	if o.strategyErrors, err = register(reg, o.strategyErrors); err != nil {
		return nil, err
	}
	if o.strategyHits, err = register(reg, o.strategyHits); err != nil {
		return nil, err
	}
	if o.branches, err = register(reg, o.branches); err != nil {
		return nil, err
	}
	if o.fallbacks, err = register(reg, o.fallbacks); err != nil {
		return nil, err
	}
	if o.requests, err = register(reg, o.requests); err != nil {
		return nil, err
	}
	if o.requestDuration, err = register(reg, o.requestDuration); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

// RecordStrategy tracks one strategy run.
func (o *PrometheusObserver) RecordStrategy(strategy string, duration time.Duration, hits int, err error) {
	o.strategyDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if err != nil {
		o.strategyErrors.WithLabelValues(strategy).Inc()
		return
	}
	o.strategyHits.WithLabelValues(strategy).Observe(float64(hits))
}

func (o *PrometheusObserver) RecordBranch(branch string) {
	o.branches.WithLabelValues(branch).Inc()
}

func (o *PrometheusObserver) RecordFallback(kind string) {
	o.fallbacks.WithLabelValues(kind).Inc()
}

func (o *PrometheusObserver) RecordRequest(route string, status int, duration time.Duration) {
	o.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	o.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

type nopObserver struct{}

// Nop returns an Observer that discards everything.
func Nop() Observer { return nopObserver{} }

func (nopObserver) RecordStrategy(string, time.Duration, int, error) {}

func (nopObserver) RecordBranch(string) {}

func (nopObserver) RecordFallback(string) {}

func (nopObserver) RecordRequest(string, int, time.Duration) {}
