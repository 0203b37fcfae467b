package handler

import (
	"net/http"

	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/infra/resilience"
	"github.com/boddenberg/home-mind-bridge/internal/port"
	"github.com/boddenberg/home-mind-bridge/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps are the services the router exposes. Nil services leave their
// routes answering 503, which keeps the operational endpoints testable alone.
type Deps struct {
	Flow     *service.ConfigFlow
	Registry *service.Registry
	Entries  port.EntryStore
	Breakers *resilience.Set
	Metrics  *observability.Metrics
	Logger   *zap.Logger

	// JWTSecret enables caller identity from bearer tokens when non-empty.
	JWTSecret string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Registry, d.Breakers))
	r.Get("/readyz", readyzHandler(d.Entries))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/bridge", bridgeMetricsHandler(d.Metrics))

		// Setup flow
		r.Get("/setup", setupFormHandler(d.Flow))
		r.Post("/setup", setupSubmitHandler(d.Flow, d.Logger))

		// Config entries and their options flow
		r.Get("/entries", listEntriesHandler(d.Entries, d.Logger))
		r.Get("/entries/{entryId}", getEntryHandler(d.Entries, d.Logger))
		r.Delete("/entries/{entryId}", deleteEntryHandler(d.Flow, d.Logger))
		r.Get("/entries/{entryId}/options", optionsFormHandler(d.Flow, d.Logger))
		r.Post("/entries/{entryId}/options", optionsSubmitHandler(d.Flow, d.Logger))

		// Conversation agents
		r.Get("/agents", listAgentsHandler(d.Registry))
		r.With(CallerIdentityMiddleware([]byte(d.JWTSecret), d.Logger)).
			Post("/conversation/{entryId}/process", processHandler(d.Registry, d.JWTSecret != "", d.Logger))
	})

	return r
}
