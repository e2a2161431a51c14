package bruteforce

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Long cracks run for days; the metrics endpoint lets them be watched
// remotely. Serving is optional, the counters always update.
var (
	metricAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keysalvage",
		Subsystem: "crack",
		Name:      "attempts_total",
		Help:      "Passphrase derivation attempts performed.",
	})

	metricMatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keysalvage",
		Subsystem: "crack",
		Name:      "matches_total",
		Help:      "Passphrases that validated against a master key.",
	})

	metricWorkerRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keysalvage",
		Subsystem: "crack",
		Name:      "worker_restarts_total",
		Help:      "Work units requeued after a worker crash.",
	})

	metricProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "keysalvage",
		Subsystem: "crack",
		Name:      "progress_ratio",
		Help:      "Verified fraction of the search index domain.",
	})
)

// ServeMetrics exposes /metrics on addr until the returned shutdown
// function is called. Listen errors surface on the returned channel.
func ServeMetrics(addr string) (shutdown func(), errs <-chan error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	return func() { server.Close() }, errCh
}
