package service_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/client"
	"github.com/boddenberg/home-mind-bridge/internal/infra/resilience"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockProber struct {
	resp   *domain.HealthResponse
	err    error
	gotURL string
}

func (m *mockProber) Health(_ context.Context, apiURL string) (*domain.HealthResponse, error) {
	m.gotURL = apiURL
	return m.resp, m.err
}

type mockChat struct {
	mu     sync.Mutex
	resp   *domain.ChatResponse
	err    error
	gotURL string
	got    []domain.ChatRequest
}

func (m *mockChat) Chat(_ context.Context, apiURL string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotURL = apiURL
	m.got = append(m.got, *req)
	return m.resp, m.err
}

func (m *mockChat) last() domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.got[len(m.got)-1]
}

// realClient talks to an httptest server like production does.
func realClient() *client.HomeMindClient {
	breakers := resilience.NewSet("test", resilience.DefaultConfig(), zap.NewNop())
	return client.NewHomeMindClient(&http.Client{}, breakers, client.Options{}, zap.NewNop())
}

func strPtr(s string) *string { return &s }
