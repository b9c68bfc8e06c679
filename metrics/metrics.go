package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var SubmissionsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "yuri_submissions_received_total",
	Help: "Number of submissions accepted through the modal.",
})

var SubmissionsDecided = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yuri_submissions_decided_total",
	Help: "Number of submissions decided by a moderator, by decision.",
}, []string{"decision"})

var ApprovalsExpired = promauto.NewCounter(prometheus.CounterOpts{
	Name: "yuri_approvals_expired_total",
	Help: "Number of pending approvals that timed out undecided.",
})

// RunServer exposes /metrics on addr until ctx is cancelled. An empty addr
// disables the server.
func RunServer(ctx context.Context, addr string) error {
	if addr == "" {
		slog.Info("metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down metrics server", "err", err)
		}
	}()

	slog.Info("metrics server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
