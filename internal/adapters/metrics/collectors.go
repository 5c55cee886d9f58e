package metrics

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "propdesk"

// Options control metrics registry configuration.
type Options struct {
	// Namespace configures the Prometheus namespace. Defaults to "propdesk".
	Namespace string
	// DisableRuntimeCollectors skips the Go and process collectors.
	DisableRuntimeCollectors bool
}

// Registry owns every PropDesk collector and implements ports.ReconcileMetrics.
type Registry struct {
	registry *prometheus.Registry

	sourceFetches      *prometheus.CounterVec
	sourceFetchLatency *prometheus.HistogramVec
	unresolvedProfiles *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpLatency        *prometheus.HistogramVec
}

var _ ports.ReconcileMetrics = (*Registry)(nil)

// New constructs a metrics registry with its own Prometheus registry.
func New(opts Options) (*Registry, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	r := &Registry{
		registry: prometheus.NewRegistry(),
		sourceFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetches_total",
				Help:      "Source fetches by source, entity and result",
			},
			[]string{"source", "entity", "result"},
		),
		sourceFetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_fetch_duration_seconds",
				Help:      "Source fetch latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source", "entity"},
		),
		unresolvedProfiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unresolved_profiles_total",
				Help:      "Challenges whose owner had no merged profile",
			},
			[]string{"source"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_transitions_total",
				Help:      "Lifecycle transitions by action and result",
			},
			[]string{"action", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "path", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	if !opts.DisableRuntimeCollectors {
		if err := r.registry.Register(collectors.NewGoCollector()); err != nil {
			return nil, err
		}
		if err := r.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, err
		}
	}

	for _, c := range r.all() {
		if err := r.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) all() []prometheus.Collector {
	return []prometheus.Collector{
		r.sourceFetches,
		r.sourceFetchLatency,
		r.unresolvedProfiles,
		r.transitions,
		r.httpRequests,
		r.httpLatency,
	}
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) ObserveFetch(source domain.Source, entity string, err error, elapsed time.Duration) {
	r.sourceFetches.WithLabelValues(source.String(), entity, result(err)).Inc()
	r.sourceFetchLatency.WithLabelValues(source.String(), entity).Observe(elapsed.Seconds())
}

func (r *Registry) IncUnresolvedProfile(source domain.Source) {
	r.unresolvedProfiles.WithLabelValues(source.String()).Inc()
}

func (r *Registry) ObserveTransition(action string, err error) {
	r.transitions.WithLabelValues(action, result(err)).Inc()
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
