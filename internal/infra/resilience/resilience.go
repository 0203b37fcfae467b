// Package resilience provides the optional circuit breakers that guard calls
// to Home Mind APIs. Calls are never retried; an open breaker only makes a dead
// API fail fast instead of waiting out the chat timeout on every utterance.
// Each API base URL gets its own breaker, so one dead API never affects
// entries pointing elsewhere.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Config holds circuit breaker parameters.
type Config struct {
	Enabled bool

	// MinRequests is the number of calls in an interval before the breaker may trip.
	MinRequests uint32
	// FailureRatio trips the breaker once reached (0..1).
	FailureRatio float64
	// OpenTimeout is how long the breaker stays open before half-open.
	OpenTimeout time.Duration
}

// DefaultConfig returns the breaker settings used once breakers are switched on.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		MinRequests:  5,
		FailureRatio: 0.6,
		OpenTimeout:  30 * time.Second,
	}
}

// Breaker runs calls through a gobreaker.CircuitBreaker, or directly when disabled.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a named breaker. State changes are logged.
func NewBreaker(name string, cfg Config, logger *zap.Logger) *Breaker {
	if !cfg.Enabled {
		return &Breaker{}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenRequests(cfg), // half-open: calls let through before closing
		Interval:    60 * time.Second, // closed: reset counters every minute
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})}
}

func halfOpenRequests(cfg Config) uint32 {
	if cfg.MinRequests == 0 {
		return 1
	}
	return cfg.MinRequests
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// State reports the breaker state ("disabled" when no breaker is configured).
func (b *Breaker) State() string {
	if b == nil || b.cb == nil {
		return "disabled"
	}
	return b.cb.State().String()
}

// IsOpen reports whether err was produced by an open or saturated breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Set lazily creates one breaker per key (an API base URL).
type Set struct {
	name   string
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewSet creates an empty breaker set. Breakers are named "<name>:<key>".
func NewSet(name string, cfg Config, logger *zap.Logger) *Set {
	return &Set{name: name, cfg: cfg, logger: logger, breakers: make(map[string]*Breaker)}
}

// For returns the breaker of key, creating it on first use.
// A nil or disabled set returns a pass-through breaker.
func (s *Set) For(key string) *Breaker {
	if s == nil || !s.cfg.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[key]
	if !ok {
		b = NewBreaker(s.name+":"+key, s.cfg, s.logger)
		s.breakers[key] = b
	}
	return b
}

// States reports the state of every breaker created so far, by key.
// It is nil when breakers are disabled.
func (s *Set) States() map[string]string {
	if s == nil || !s.cfg.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.breakers))
	for key, b := range s.breakers {
		out[key] = b.State()
	}
	return out
}

