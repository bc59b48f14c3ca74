package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/pacer-app/pacer/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Timer metrics

	TicksApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pacer",
		Name:      "ticks_applied_total",
		Help:      "Total tick deltas applied to running schedules.",
	})

	IntervalAdvances = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pacer",
		Name:      "interval_advances_total",
		Help:      "Total interval-to-interval advances, elapsed or skipped.",
	})

	CuesPlayed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacer",
		Name:      "cues_played_total",
		Help:      "Boundary audio cues fired, by cue.",
	}, []string{"cue"})

	// Session metrics

	SessionsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pacer",
		Name:      "sessions_in_flight",
		Help:      "Live practice sessions currently held in memory.",
	})

	SessionsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pacer",
		Name:      "sessions_started_total",
		Help:      "Total sessions created.",
	})

	SessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pacer",
		Name:      "session_duration_seconds",
		Help:      "Total elapsed practice time of a session at eviction.",
		Buckets:   []float64{30, 60, 300, 600, 1200, 1800, 2700, 3600, 7200},
	})

	// Builder metrics

	BuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacer",
		Name:      "builds_total",
		Help:      "Schedule builds, by outcome.",
	}, []string{"outcome"})

	BuildDiagnostics = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacer",
		Name:      "build_diagnostics_total",
		Help:      "Row-scoped build diagnostics, by kind.",
	}, []string{"kind"})

	// Reminder metrics

	RemindersSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pacer",
		Name:      "reminders_sent_total",
		Help:      "Practice reminder emails sent.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pacer",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacer",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		TicksApplied,
		IntervalAdvances,
		CuesPlayed,
		SessionsInFlight,
		SessionsStartedTotal,
		SessionDuration,
		BuildsTotal,
		BuildDiagnostics,
		RemindersSentTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus the liveness/readiness probes.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
