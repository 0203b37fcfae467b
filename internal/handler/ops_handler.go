package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/infra/resilience"
	"github.com/boddenberg/home-mind-bridge/internal/port"
	"github.com/boddenberg/home-mind-bridge/internal/service"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func healthzHandler(registry *service.Registry, breakers *resilience.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := domain.HealthStatus{Status: "healthy", Breakers: breakers.States()}
		if registry != nil {
			status.Agents = registry.Len()
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// readyzHandler reports ready once the entry store answers.
func readyzHandler(entries port.EntryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := entries.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "entry store unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func bridgeMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
