package observability_test

import (
	"testing"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Empty(t *testing.T) {
	snap := observability.NewMetrics().Snapshot()

	require.NotNil(t, snap)
	assert.Zero(t, snap.TotalExchanges)
	assert.Zero(t, snap.ErrorRate)
	assert.Equal(t, "all_time", snap.Period)
}

func TestSnapshot_CountsExchangesAndSetups(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrExchange(observability.ExchangeSuccess)
	m.IncrExchange(observability.ExchangeSuccess)
	m.IncrExchange(observability.ExchangeFallback)
	m.IncrExchange(observability.ExchangeError)
	m.IncrSetupAttempt("ok")
	m.IncrSetupAttempt(domain.FormErrorCannotConnect)
	m.IncrSetupAttempt(domain.FormErrorUnknown)

	snap := m.Snapshot()
	assert.EqualValues(t, 4, snap.TotalExchanges)
	assert.EqualValues(t, 2, snap.SuccessfulReplies)
	assert.EqualValues(t, 1, snap.FallbackReplies)
	assert.EqualValues(t, 1, snap.ErrorReplies)
	assert.InDelta(t, 0.25, snap.ErrorRate, 1e-9)
	assert.InDelta(t, 0.25, snap.FallbackRate, 1e-9)
	assert.EqualValues(t, 1, snap.SetupSucceeded)
	assert.EqualValues(t, 2, snap.SetupFailed)
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()

	a.IncrExchange(observability.ExchangeSuccess)

	assert.EqualValues(t, 1, a.Snapshot().TotalExchanges)
	assert.EqualValues(t, 0, b.Snapshot().TotalExchanges)
}
