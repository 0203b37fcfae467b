// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
)

// HealthProber probes the Home Mind API health endpoint.
type HealthProber interface {
	Health(ctx context.Context, apiURL string) (*domain.HealthResponse, error)
}

// ChatCaller sends one exchange to the Home Mind API chat endpoint.
type ChatCaller interface {
	Chat(ctx context.Context, apiURL string, req *domain.ChatRequest) (*domain.ChatResponse, error)
}

// EntryStore persists config entries and their options.
type EntryStore interface {
	Create(ctx context.Context, entry *domain.ConfigEntry) error
	Get(ctx context.Context, entryID string) (*domain.ConfigEntry, error)
	List(ctx context.Context) ([]domain.ConfigEntry, error)
	UpdateOptions(ctx context.Context, entryID string, opts domain.EntryOptions) (*domain.ConfigEntry, error)
	Delete(ctx context.Context, entryID string) error
}

// OptionsSource reads the current options of an entry at call time.
type OptionsSource interface {
	Get(ctx context.Context, entryID string) (*domain.ConfigEntry, error)
}
