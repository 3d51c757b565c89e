package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	CacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clans_cache_entries",
			Help: "Number of entries held per entity cache",
		},
		[]string{"kind"},
	)
	SweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clans_sweep_runs_total",
			Help: "Expiry sweep runs",
		},
		[]string{"sweep", "status"}, // status: ok, error, skipped
	)
	SweepRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clans_sweep_removed_total",
			Help: "Rows removed by expiry sweeps",
		},
		[]string{"sweep"},
	)
	StorageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clans_storage_errors_total",
			Help: "Storage failures surfaced to callers",
		},
		[]string{"op"},
	)
)

// InitMetrics registers the collectors with the default registry.
func InitMetrics() {
	prometheus.MustRegister(CacheEntries, SweepRuns, SweepRemoved, StorageErrors)
}

// ServeMetrics exposes /metrics on addr in the background.
func ServeMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv
}
