package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boddenberg/home-mind-bridge/internal/handler"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func bareRouter() http.Handler {
	return handler.NewRouter(handler.Deps{Metrics: observability.NewMetrics(), Logger: zap.NewNop()})
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	bareRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestReadyz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	bareRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetrics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	bareRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnconfiguredRoutes(t *testing.T) {
	for _, path := range []string{"/v1/setup", "/v1/entries", "/v1/agents"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		bareRouter().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}
