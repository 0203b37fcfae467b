package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/port"

	"go.uber.org/zap"
)

// Registry holds the live conversation agent of every config entry.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent

	chat    port.ChatCaller
	store   port.EntryStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(chat port.ChatCaller, store port.EntryStore, metrics *observability.Metrics, logger *zap.Logger) *Registry {
	return &Registry{
		agents:  make(map[string]*Agent),
		chat:    chat,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Load sets up an agent for every persisted entry.
func (r *Registry) Load(ctx context.Context) error {
	entries, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load config entries: %w", err)
	}
	for i := range entries {
		r.Setup(&entries[i])
	}
	r.logger.Info("conversation agents loaded", zap.Int("count", len(entries)))
	return nil
}

// Setup creates (or replaces) the agent of entry.
func (r *Registry) Setup(entry *domain.ConfigEntry) *Agent {
	agent := NewAgent(entry, r.chat, r.store, r.metrics, r.logger)

	r.mu.Lock()
	r.agents[entry.EntryID] = agent
	r.mu.Unlock()

	r.logger.Debug("conversation agent set up",
		zap.String("entry_id", entry.EntryID),
		zap.String("api_url", agent.apiURL),
	)
	return agent
}

// Unload removes the agent of entryID. It reports whether one was registered.
func (r *Registry) Unload(entryID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[entryID]; !ok {
		return false
	}
	delete(r.agents, entryID)
	return true
}

// Get returns the agent of entryID.
func (r *Registry) Get(entryID string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[entryID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "conversation agent", ID: entryID}
	}
	return agent, nil
}

// List describes every registered agent, ordered by entry id.
func (r *Registry) List() []domain.AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.AgentInfo, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryID < out[j].EntryID })
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
