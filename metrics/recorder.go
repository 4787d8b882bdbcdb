// Package metrics exposes Prometheus instruments for the session client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "admin_client"

// Recorder implements the observer interfaces of dispatch, refresh and
// session. A nil *Recorder records nothing.
type Recorder struct {
	dispatches      *prometheus.CounterVec
	refreshCycles   *prometheus.CounterVec
	refreshWaiters  prometheus.Histogram
	refreshDuration prometheus.Histogram
	replays         prometheus.Counter
}

// NewRecorder creates the instruments and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests sent, by outcome class.",
		}, []string{"outcome"}),
		refreshCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Settled credential refresh cycles, by outcome.",
		}, []string{"outcome"}),
		refreshWaiters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_waiters",
			Help:      "Callers released by one refresh cycle.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time from the start of a refresh cycle to its settlement.",
			Buckets:   prometheus.DefBuckets,
		}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replays_total",
			Help:      "Requests replayed after a successful refresh.",
		}),
	}

	for _, c := range []prometheus.Collector{r.dispatches, r.refreshCycles, r.refreshWaiters, r.refreshDuration, r.replays} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) DispatchObserved(kind string) {
	if r == nil {
		return
	}
	r.dispatches.WithLabelValues(kind).Inc()
}

func (r *Recorder) RefreshObserved(outcome string, waiters int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.refreshCycles.WithLabelValues(outcome).Inc()
	r.refreshWaiters.Observe(float64(waiters))
	r.refreshDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) ReplayObserved() {
	if r == nil {
		return
	}
	r.replays.Inc()
}
