package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strconv"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	SyncOpsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_operations_total",
			Help: "Total number of sync operations by kind.",
		},
		[]string{"operation"},
	)
	ShortlistTransitionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_shortlist_transitions_total",
			Help: "Total number of shortlist record transitions.",
		},
		[]string{"transition"},
	)
	EnrichmentDuration = prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name:       "sync_enrichment_duration_seconds",
			Help:       "Duration of each enrichment oracle call.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
	)
	EnrichmentAttemptsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_enrichment_attempts_total",
			Help: "Total number of enrichment oracle attempts, retries included.",
		},
	)
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_sweep_duration_seconds",
			Help:    "Duration of each full reconciliation sweep in seconds.",
			Buckets: []float64{10, 30, 60, 300, 900, 1800},
		},
	)
)

func StartMetricsServer(port int) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(SyncOpsCounter)
	prometheus.MustRegister(ShortlistTransitionsCounter)
	prometheus.MustRegister(EnrichmentDuration)
	prometheus.MustRegister(EnrichmentAttemptsCounter)
	prometheus.MustRegister(SweepDuration)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(":"+strconv.Itoa(port), mux))
	}()
}
