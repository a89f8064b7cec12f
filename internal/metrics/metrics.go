// Package metrics exposes Prometheus counters for the monitoring worker and
// the reconciliation daemon. All methods are nil-safe so callers can run
// without metrics wired.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrewdarr/bt-sentinel/internal/logger"
)

// Recorder registers and updates the project's Prometheus metrics.
type Recorder struct {
	registry *prom.Registry

	scanCycles      *prom.CounterVec
	episodesOpened  prom.Counter
	alarmsTriggered prom.Counter
	notifications   *prom.CounterVec
	reconcileCycles *prom.CounterVec
	workerActions   *prom.CounterVec
}

// NewRecorder constructs and registers the metrics on the provided registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{registry: reg}

	r.scanCycles = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sentinel",
		Name:      "scan_cycles_total",
		Help:      "Scan cycles by result",
	}, []string{"result"})
	r.episodesOpened = prom.NewCounter(prom.CounterOpts{
		Namespace: "sentinel",
		Name:      "episodes_opened_total",
		Help:      "Detection episodes opened",
	})
	r.alarmsTriggered = prom.NewCounter(prom.CounterOpts{
		Namespace: "sentinel",
		Name:      "alarms_triggered_total",
		Help:      "Alarm activations",
	})
	r.notifications = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sentinel",
		Name:      "notifications_total",
		Help:      "Notification deliveries by channel and result",
	}, []string{"channel", "result"})
	r.reconcileCycles = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sentinel",
		Name:      "reconcile_cycles_total",
		Help:      "Reconciliation daemon cycles by result",
	}, []string{"result"})
	r.workerActions = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sentinel",
		Name:      "worker_actions_total",
		Help:      "Worker start/stop requests by action and result",
	}, []string{"action", "result"})

	reg.MustRegister(
		r.scanCycles, r.episodesOpened, r.alarmsTriggered,
		r.notifications, r.reconcileCycles, r.workerActions,
	)

	return r
}

// ObserveScanCycle counts one scan cycle with its result ("ok" or "error").
func (r *Recorder) ObserveScanCycle(result string) {
	if r == nil {
		return
	}

	r.scanCycles.WithLabelValues(result).Inc()
}

// ObserveEpisodeOpened counts a new detection episode.
func (r *Recorder) ObserveEpisodeOpened() {
	if r == nil {
		return
	}

	r.episodesOpened.Inc()
}

// ObserveAlarmTriggered counts an alarm activation.
func (r *Recorder) ObserveAlarmTriggered() {
	if r == nil {
		return
	}

	r.alarmsTriggered.Inc()
}

// ObserveNotification counts a notification attempt for a channel.
func (r *Recorder) ObserveNotification(channel, result string) {
	if r == nil {
		return
	}

	r.notifications.WithLabelValues(channel, result).Inc()
}

// ObserveReconcileCycle counts one daemon cycle with its result.
func (r *Recorder) ObserveReconcileCycle(result string) {
	if r == nil {
		return
	}

	r.reconcileCycles.WithLabelValues(result).Inc()
}

// ObserveWorkerAction counts a start/stop request and its verified result.
func (r *Recorder) ObserveWorkerAction(action, result string) {
	if r == nil {
		return
	}

	r.workerActions.WithLabelValues(action, result).Inc()
}

// Serve exposes /metrics on the given address until the context is canceled.
// An empty address disables the endpoint. Serving errors are logged, never fatal.
func (r *Recorder) Serve(ctx context.Context, addr string) {
	if r == nil || addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Metrics endpoint failed", "addr", addr, "error", err)
		}
	}()
}
