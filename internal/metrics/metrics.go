package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LinesParsed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "isp_sorter",
		Name:      "lines_parsed_total",
		Help:      "Non-empty input lines seen by the combo parser.",
	})
	LinesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "isp_sorter",
		Name:      "lines_dropped_total",
		Help:      "Input lines dropped as malformed.",
	})
	BounceChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "isp_sorter",
		Name:      "bounce_checks_total",
		Help:      "Bounce verdicts by status.",
	}, []string{"status"})
	BounceCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "isp_sorter",
		Name:      "bounce_cache_hits_total",
		Help:      "Bounce verdicts served from the verdict cache.",
	})
	ExportedEmails = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "isp_sorter",
		Name:      "exported_emails_total",
		Help:      "Emails written to filtered exports.",
	})
	PipelineSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "isp_sorter",
		Name:      "pipeline_duration_seconds",
		Help:      "Wall time of one pipeline run.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(LinesParsed, LinesDropped, BounceChecks, BounceCacheHits, ExportedEmails, PipelineSeconds)
}

// Handler exposes the default registry, for mounting on an existing router.
func Handler() http.Handler { return promhttp.Handler() }

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}

// AddrFromEnv returns listen address from METRICS_ADDR or default ":9090".
func AddrFromEnv() string {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		return v
	}
	return ":9090"
}
