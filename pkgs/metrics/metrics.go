package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	FeedReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_reloads_total",
		Help: "Number of completed full feed reloads",
	})

	FeedReloadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_reload_failures_total",
		Help: "Number of feed reloads aborted by a remote read failure",
	})

	PostsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posts_submitted_total",
		Help: "Number of posts accepted by the ledger",
	})

	SubmissionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "post_submission_failures_total",
		Help: "Number of post submissions that failed to broadcast or reverted",
	})

	UserRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "post_user_rejections_total",
		Help: "Number of submissions declined at the signing prompt",
	})

	SubmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "post_submission_duration_seconds",
		Help:    "Wall time from submit intent to mined receipt",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// StartServer exposes /metrics on the given port. Blocks; run it in its
// own goroutine.
func StartServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.WithField("addr", addr).Info("Starting metrics server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("Metrics server stopped")
	}
}
