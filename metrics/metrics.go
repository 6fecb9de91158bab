package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"growledger-go/events"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "growledger"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ledgerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "events_total",
			Help:      "Committed ledger changes by event type.",
		},
		[]string{"type"},
	)

	ledgerVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "volume_inr_total",
			Help:      "Absolute INR moved by committed ledger changes.",
		},
		[]string{"type"},
	)

	referralBonuses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "referral",
			Name:      "bonuses_total",
			Help:      "Referral bonuses paid, by trigger and tier.",
		},
		[]string{"trigger", "tier"},
	)

	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Global maturity sweeps, by outcome.",
		},
		[]string{"success"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "run_duration_seconds",
			Help:      "Duration of global maturity sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerEvents,
		ledgerVolume,
		referralBonuses,
		sweepRuns,
		sweepDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Listener counts every committed ledger event.
func Listener() events.Listener {
	return events.ListenerFunc(func(_ context.Context, e events.Event) error {
		t := string(e.Type)
		ledgerEvents.WithLabelValues(t).Inc()
		if !e.Amount.IsZero() {
			v, _ := e.Amount.Abs().Float64()
			ledgerVolume.WithLabelValues(t).Add(v)
		}
		if e.Type == events.ReferralBonusPaid {
			tier := e.Label("tier")
			if tier == "" {
				tier = "flat"
			}
			referralBonuses.WithLabelValues(e.Label("trigger"), tier).Inc()
		}
		return nil
	})
}

// RecordSweep records one global sweep run.
func RecordSweep(duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	sweepRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	sweepDuration.Observe(duration.Seconds())
}

// InstrumentHandler records request counts and latency per route template.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routeTemplate(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// routeTemplate keeps label cardinality bounded by using the mux template
// instead of the raw path.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
