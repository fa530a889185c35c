package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IncrementalUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipmap_incremental_updates_total",
		Help: "Push records applied to the entity store, by outcome",
	}, []string{"outcome"})
	IncrementalDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipmap_incremental_dropped_total",
		Help: "Push records discarded because the live channel was no longer active",
	})
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipmap_push_decode_errors_total",
		Help: "Push messages that could not be decoded into a vessel record",
	})
	SnapshotsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipmap_snapshots_applied_total",
		Help: "Full snapshots applied to the entity store, by reason",
	}, []string{"reason"})
	StaleResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipmap_stale_results_total",
		Help: "Fetch results discarded because a newer request superseded them",
	}, []string{"kind"})
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipmap_fetch_errors_total",
		Help: "Failed HTTP reads against the ship service, by endpoint",
	}, []string{"endpoint"})
	FetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipmap_fetch_latency_seconds",
		Help:    "Latency of HTTP reads against the ship service",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	TransportState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shipmap_transport_state",
		Help: "Transport supervisor state (0=connecting, 1=live, 2=degraded)",
	})
	Entities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shipmap_entities",
		Help: "Vessels currently in the entity store",
	})
	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipmap_sink_errors_total",
		Help: "Render commands a sink failed to deliver",
	}, []string{"sink"})
	SinkCoalesced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipmap_sink_coalesced_total",
		Help: "Render commands superseded by a later command before an async sink delivered them",
	}, []string{"sink"})
)

func ObserveFetchLatency(endpoint string, start time.Time) {
	FetchLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// StartMetricsServer blocks serving /metrics and /healthz. /healthz answers
// 503 until ready reports true.
func StartMetricsServer(port string, ready func() bool) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", HealthHandler(ready))
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func HealthHandler(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
