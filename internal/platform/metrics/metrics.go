package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlanJobs counts finished planning jobs by agent and outcome.
	PlanJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "plan_jobs_total", Help: "Planning jobs by agent and outcome."},
		[]string{"agent", "status"},
	)
	// PlanDuration records planning runtime in seconds by agent.
	PlanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "plan_duration_seconds", Help: "Planning runtime in seconds.", Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 10, 30}},
		[]string{"agent"},
	)
	// PackagesUnassigned counts packages plans could not place.
	PackagesUnassigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "plan_packages_unassigned_total", Help: "Packages left unassigned by finished plans."},
		[]string{"agent"},
	)
	// JobsInflight tracks jobs currently running.
	JobsInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "plan_jobs_inflight", Help: "Planning jobs currently running."},
	)

	// DistanceCacheHits and DistanceCacheMisses track the distance
	// cache in front of remote providers.
	DistanceCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "distance_cache_hits_total", Help: "Distance cache hits."},
	)
	DistanceCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "distance_cache_misses_total", Help: "Distance cache misses."},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlanJobs)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(PackagesUnassigned)
		Registry.MustRegister(JobsInflight)
		Registry.MustRegister(DistanceCacheHits)
		Registry.MustRegister(DistanceCacheMisses)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
