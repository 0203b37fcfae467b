package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/infra/store"
	"github.com/boddenberg/home-mind-bridge/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flowFixture struct {
	flow     *service.ConfigFlow
	prober   *mockProber
	chat     *mockChat
	entries  *store.MemoryStore
	registry *service.Registry
	metrics  *observability.Metrics
}

func newFlowFixture(health *domain.HealthResponse, healthErr error) *flowFixture {
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	prober := &mockProber{resp: health, err: healthErr}
	entries := store.NewMemoryStore()
	chat := &mockChat{resp: &domain.ChatResponse{Response: "ok"}}
	registry := service.NewRegistry(chat, entries, metrics, logger)

	return &flowFixture{
		flow:     service.NewConfigFlow(service.NewValidator(prober, metrics, logger), entries, registry, metrics, logger),
		prober:   prober,
		chat:     chat,
		entries:  entries,
		registry: registry,
		metrics:  metrics,
	}
}

func TestUserForm_Defaults(t *testing.T) {
	form := newFlowFixture(nil, nil).flow.UserForm()

	assert.Equal(t, domain.FlowResultForm, form.Type)
	assert.Equal(t, domain.StepUser, form.StepID)
	require.Len(t, form.Fields, 2)
	assert.Equal(t, "api_url", form.Fields[0].Name)
	assert.True(t, form.Fields[0].Required)
	assert.Equal(t, "http://localhost:3100", form.Fields[0].Default)
	assert.Equal(t, "user_id", form.Fields[1].Name)
	assert.False(t, form.Fields[1].Required)
	assert.Equal(t, "default", form.Fields[1].Default)
	assert.Empty(t, form.Errors)
}

func TestSubmitUser_CreatesEntry(t *testing.T) {
	fx := newFlowFixture(&domain.HealthResponse{Status: "ok"}, nil)

	result, err := fx.flow.SubmitUser(context.Background(), domain.UserStepInput{
		APIURL: strPtr("http://h:3100/"),
		UserID: strPtr("kitchen"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.FlowResultCreateEntry, result.Type)
	assert.Equal(t, "Home Mind", result.Title)
	require.NotEmpty(t, result.EntryID)

	entry, err := fx.entries.Get(context.Background(), result.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "http://h:3100", entry.Data.APIURL)
	assert.Equal(t, "kitchen", entry.Data.UserID)
	assert.Empty(t, entry.Options.CustomPrompt)

	_, err = fx.registry.Get(result.EntryID)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, fx.metrics.Snapshot().SetupSucceeded)
}

func TestSubmitUser_AppliesDefaults(t *testing.T) {
	fx := newFlowFixture(&domain.HealthResponse{Status: "ok"}, nil)

	result, err := fx.flow.SubmitUser(context.Background(), domain.UserStepInput{})

	require.NoError(t, err)
	entry, err := fx.entries.Get(context.Background(), result.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3100", entry.Data.APIURL)
	assert.Equal(t, "default", entry.Data.UserID)
	assert.Equal(t, "http://localhost:3100", fx.prober.gotURL)
}

func TestSubmitUser_BlankUserIDStoredAsDefault(t *testing.T) {
	for _, userID := range []string{"", "   "} {
		fx := newFlowFixture(&domain.HealthResponse{Status: "ok"}, nil)

		result, err := fx.flow.SubmitUser(context.Background(), domain.UserStepInput{UserID: strPtr(userID)})
		require.NoError(t, err)

		entry, err := fx.entries.Get(context.Background(), result.EntryID)
		require.NoError(t, err)
		assert.Equal(t, "default", entry.Data.UserID, "user_id=%q", userID)

		agent, err := fx.registry.Get(result.EntryID)
		require.NoError(t, err)
		agent.Process(context.Background(), &domain.ConversationInput{Text: "hi"})
		assert.Equal(t, entry.Data.UserID, fx.chat.last().UserID, "stored and sent user ids agree")
	}
}

func TestSubmitUser_FormErrors(t *testing.T) {
	tests := []struct {
		name      string
		health    *domain.HealthResponse
		healthErr error
		apiURL    string
		wantKey   string
		wantValue string
	}{
		{
			name:      "cannot connect",
			healthErr: &domain.ErrAPI{Err: errors.New("connection refused")},
			apiURL:    "http://h:3100",
			wantKey:   "base",
			wantValue: "cannot_connect",
		},
		{
			name:      "unhealthy",
			health:    &domain.HealthResponse{Status: "degraded"},
			apiURL:    "http://h:3100",
			wantKey:   "base",
			wantValue: "cannot_connect",
		},
		{
			name:      "unexpected error",
			healthErr: errors.New("decode health response: invalid character"),
			apiURL:    "http://h:3100",
			wantKey:   "base",
			wantValue: "unknown",
		},
		{
			name:      "empty url",
			apiURL:    " / ",
			wantKey:   "api_url",
			wantValue: "invalid_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFlowFixture(tt.health, tt.healthErr)

			result, err := fx.flow.SubmitUser(context.Background(), domain.UserStepInput{APIURL: strPtr(tt.apiURL)})

			require.NoError(t, err)
			assert.Equal(t, domain.FlowResultForm, result.Type)
			assert.Equal(t, domain.StepUser, result.StepID)
			assert.Equal(t, tt.wantValue, result.Errors[tt.wantKey])

			list, err := fx.entries.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.Zero(t, fx.registry.Len())
			assert.EqualValues(t, 1, fx.metrics.Snapshot().SetupFailed)
		})
	}
}

func TestOptionsFlow(t *testing.T) {
	fx := newFlowFixture(&domain.HealthResponse{Status: "ok"}, nil)
	ctx := context.Background()

	created, err := fx.flow.SubmitUser(ctx, domain.UserStepInput{APIURL: strPtr("http://h:3100")})
	require.NoError(t, err)

	form, err := fx.flow.OptionsForm(ctx, created.EntryID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepInit, form.StepID)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, "custom_prompt", form.Fields[0].Name)
	assert.Empty(t, form.Fields[0].SuggestedValue)

	result, err := fx.flow.SubmitOptions(ctx, created.EntryID, domain.OptionsStepInput{CustomPrompt: "Be terse."})
	require.NoError(t, err)
	assert.Equal(t, domain.FlowResultCreateEntry, result.Type)

	form, err = fx.flow.OptionsForm(ctx, created.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", form.Fields[0].SuggestedValue)
}

func TestOptionsFlow_UnknownEntry(t *testing.T) {
	fx := newFlowFixture(nil, nil)

	_, err := fx.flow.OptionsForm(context.Background(), "nope")
	var notFound *domain.ErrNotFound
	assert.ErrorAs(t, err, &notFound)

	_, err = fx.flow.SubmitOptions(context.Background(), "nope", domain.OptionsStepInput{})
	assert.ErrorAs(t, err, &notFound)
}

func TestRemoveEntry(t *testing.T) {
	fx := newFlowFixture(&domain.HealthResponse{Status: "ok"}, nil)
	ctx := context.Background()

	created, err := fx.flow.SubmitUser(ctx, domain.UserStepInput{})
	require.NoError(t, err)

	require.NoError(t, fx.flow.RemoveEntry(ctx, created.EntryID))

	_, err = fx.registry.Get(created.EntryID)
	var notFound *domain.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
	assert.ErrorAs(t, fx.flow.RemoveEntry(ctx, created.EntryID), &notFound)
}
