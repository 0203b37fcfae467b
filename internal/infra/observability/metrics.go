package observability

import (
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Exchange outcomes used as the status label of homemind_exchanges_total.
const (
	ExchangeSuccess  = "success"
	ExchangeFallback = "fallback"
	ExchangeError    = "error"
)

// Metrics holds all Prometheus metrics for the bridge.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	exchangesTotal  *prometheus.CounterVec
	setupAttempts   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// bridge metrics in it. A private registry lets tests call NewMetrics
// repeatedly without duplicate collector panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "homemind_request_duration_seconds",
				Help: "Duration of remote API calls by operation.",
				// chat calls may legitimately run for up to two minutes
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homemind_external_errors_total",
				Help: "Total errors from the Home Mind API.",
			},
			[]string{"operation"},
		),
		exchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homemind_exchanges_total",
				Help: "Total conversation exchanges by outcome.",
			},
			[]string{"status"},
		),
		setupAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homemind_setup_attempts_total",
				Help: "Total setup validations by result.",
			},
			[]string{"result"},
		),
	}
}

// RecordRequestDuration records the duration of a remote call.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(operation string) {
	m.externalErrors.WithLabelValues(operation).Inc()
}

// IncrExchange counts one finished conversation exchange.
func (m *Metrics) IncrExchange(status string) {
	m.exchangesTotal.WithLabelValues(status).Inc()
}

// IncrSetupAttempt counts one setup validation; result is a form error key or "ok".
func (m *Metrics) IncrSetupAttempt(result string) {
	m.setupAttempts.WithLabelValues(result).Inc()
}

// Snapshot returns cumulative bridge counters for GET /v1/metrics/bridge.
func (m *Metrics) Snapshot() *domain.BridgeMetrics {
	success := getCounterValue(m.exchangesTotal, ExchangeSuccess)
	fallback := getCounterValue(m.exchangesTotal, ExchangeFallback)
	failed := getCounterValue(m.exchangesTotal, ExchangeError)
	total := success + fallback + failed

	setupOK := getCounterValue(m.setupAttempts, "ok")
	setupFailed := getCounterValue(m.setupAttempts, domain.FormErrorCannotConnect) +
		getCounterValue(m.setupAttempts, domain.FormErrorUnknown) +
		getCounterValue(m.setupAttempts, domain.FormErrorInvalidURL)

	snap := &domain.BridgeMetrics{
		TotalExchanges:    int64(total),
		SuccessfulReplies: int64(success),
		FallbackReplies:   int64(fallback),
		ErrorReplies:      int64(failed),
		SetupSucceeded:    int64(setupOK),
		SetupFailed:       int64(setupFailed),
		Period:            "all_time",
	}
	if total > 0 {
		snap.ErrorRate = failed / total
		snap.FallbackRate = fallback / total
	}
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
