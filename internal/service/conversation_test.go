package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/infra/store"
	"github.com/boddenberg/home-mind-bridge/internal/service"

	"github.com/oklog/ulid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAgent(t *testing.T, chat *mockChat, data domain.EntryData, opts domain.EntryOptions) (*service.Agent, *observability.Metrics) {
	t.Helper()

	entries := store.NewMemoryStore()
	entry := &domain.ConfigEntry{EntryID: "entry-1", Domain: domain.Domain, Title: domain.EntryTitle, Data: data, Options: opts}
	require.NoError(t, entries.Create(context.Background(), entry))

	metrics := observability.NewMetrics()
	return service.NewAgent(entry, chat, entries, metrics, zap.NewNop()), metrics
}

func TestProcess_Success(t *testing.T) {
	chat := &mockChat{resp: &domain.ChatResponse{Response: "Lights on."}}
	agent, metrics := newTestAgent(t, chat, domain.EntryData{APIURL: "http://h:3100/", UserID: "default"}, domain.EntryOptions{})

	result := agent.Process(context.Background(), &domain.ConversationInput{
		Text:           "turn on the lights",
		ConversationID: "conv-1",
		Language:       "en",
	})

	require.NotNil(t, result)
	assert.Equal(t, "Lights on.", result.Response.Speech)
	assert.Equal(t, domain.ResponseTypeActionDone, result.Response.ResponseType)
	assert.Equal(t, "en", result.Response.Language)
	assert.Equal(t, "conv-1", result.ConversationID)
	assert.Equal(t, "http://h:3100", chat.gotURL)
	assert.EqualValues(t, 1, metrics.Snapshot().SuccessfulReplies)
}

func TestProcess_GeneratesConversationID(t *testing.T) {
	chat := &mockChat{resp: &domain.ChatResponse{Response: "ok"}}
	agent, _ := newTestAgent(t, chat, domain.EntryData{APIURL: "http://h:3100"}, domain.EntryOptions{})

	result := agent.Process(context.Background(), &domain.ConversationInput{Text: "hi"})

	require.NotEmpty(t, result.ConversationID)
	_, err := ulid.Parse(result.ConversationID)
	assert.NoError(t, err)
	assert.Equal(t, result.ConversationID, chat.last().ConversationID)

	other := agent.Process(context.Background(), &domain.ConversationInput{Text: "hi"})
	assert.NotEqual(t, result.ConversationID, other.ConversationID)
}

func TestProcess_UserIDAndVoice(t *testing.T) {
	tests := []struct {
		name      string
		data      domain.EntryData
		input     domain.ConversationInput
		wantUser  string
		wantVoice bool
	}{
		{
			name:     "configured default user",
			data:     domain.EntryData{APIURL: "http://h", UserID: "kitchen"},
			input:    domain.ConversationInput{Text: "hi"},
			wantUser: "kitchen",
		},
		{
			name:     "empty configured user falls back to default",
			data:     domain.EntryData{APIURL: "http://h"},
			input:    domain.ConversationInput{Text: "hi"},
			wantUser: "default",
		},
		{
			name:     "caller identity wins",
			data:     domain.EntryData{APIURL: "http://h", UserID: "kitchen"},
			input:    domain.ConversationInput{Text: "hi", Context: &domain.InputContext{UserID: "alice"}},
			wantUser: "alice",
		},
		{
			name:     "empty caller identity ignored",
			data:     domain.EntryData{APIURL: "http://h", UserID: "kitchen"},
			input:    domain.ConversationInput{Text: "hi", Context: &domain.InputContext{}},
			wantUser: "kitchen",
		},
		{
			name:      "voice agent attached",
			data:      domain.EntryData{APIURL: "http://h"},
			input:     domain.ConversationInput{Text: "hi", AgentID: "assist_pipeline"},
			wantUser:  "default",
			wantVoice: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &mockChat{resp: &domain.ChatResponse{Response: "ok"}}
			agent, _ := newTestAgent(t, chat, tt.data, domain.EntryOptions{})

			agent.Process(context.Background(), &tt.input)

			got := chat.last()
			assert.Equal(t, tt.wantUser, got.UserID)
			assert.Equal(t, tt.wantVoice, got.IsVoice)
			assert.Equal(t, "hi", got.Message)
		})
	}
}

func TestProcess_CustomPromptOnlyWhenSet(t *testing.T) {
	var bodies []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer server.Close()

	entries := store.NewMemoryStore()
	entry := &domain.ConfigEntry{EntryID: "entry-1", Data: domain.EntryData{APIURL: server.URL}}
	require.NoError(t, entries.Create(context.Background(), entry))
	agent := service.NewAgent(entry, realClient(), entries, observability.NewMetrics(), zap.NewNop())

	agent.Process(context.Background(), &domain.ConversationInput{Text: "one"})

	_, err := entries.UpdateOptions(context.Background(), "entry-1", domain.EntryOptions{CustomPrompt: "Answer in one sentence."})
	require.NoError(t, err)
	agent.Process(context.Background(), &domain.ConversationInput{Text: "two"})

	require.Len(t, bodies, 2)
	assert.NotContains(t, bodies[0], "customPrompt")
	assert.Equal(t, "Answer in one sentence.", bodies[1]["customPrompt"])
}

func TestProcess_FallbackOnEmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty response", body: `{"response": ""}`},
		{name: "missing response", body: `{}`},
		{name: "null response", body: `{"response": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			entries := store.NewMemoryStore()
			entry := &domain.ConfigEntry{EntryID: "entry-1", Data: domain.EntryData{APIURL: server.URL}}
			require.NoError(t, entries.Create(context.Background(), entry))
			metrics := observability.NewMetrics()
			agent := service.NewAgent(entry, realClient(), entries, metrics, zap.NewNop())

			result := agent.Process(context.Background(), &domain.ConversationInput{Text: "hi"})

			assert.Equal(t, "I received your request but got no response.", result.Response.Speech)
			assert.Equal(t, domain.ResponseTypeActionDone, result.Response.ResponseType)
			assert.EqualValues(t, 1, metrics.Snapshot().FallbackReplies)
		})
	}
}

func TestProcess_APIErrorKeepsConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance"))
	}))
	defer server.Close()

	entries := store.NewMemoryStore()
	entry := &domain.ConfigEntry{EntryID: "entry-1", Data: domain.EntryData{APIURL: server.URL}}
	require.NoError(t, entries.Create(context.Background(), entry))
	metrics := observability.NewMetrics()
	agent := service.NewAgent(entry, realClient(), entries, metrics, zap.NewNop())

	result := agent.Process(context.Background(), &domain.ConversationInput{
		Text:           "hi",
		ConversationID: "conv-42",
		Language:       "de",
	})

	require.NotNil(t, result)
	assert.Equal(t, "conv-42", result.ConversationID)
	assert.Equal(t, domain.ResponseTypeError, result.Response.ResponseType)
	assert.Equal(t, domain.ErrorCodeUnknown, result.Response.ErrorCode)
	assert.Equal(t, "de", result.Response.Language)
	assert.Contains(t, result.Response.Speech, "Sorry, I couldn't process that request")
	assert.Contains(t, result.Response.Speech, "503")
	assert.EqualValues(t, 1, metrics.Snapshot().ErrorReplies)
}

func TestProcess_NetworkErrorBecomesResponse(t *testing.T) {
	chat := &mockChat{err: errors.New("dial tcp: connection refused")}
	agent, _ := newTestAgent(t, chat, domain.EntryData{APIURL: "http://h"}, domain.EntryOptions{})

	result := agent.Process(context.Background(), &domain.ConversationInput{Text: "hi"})

	require.NotNil(t, result)
	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, domain.ResponseTypeError, result.Response.ResponseType)
	assert.Contains(t, result.Response.Speech, "connection refused")
}

func TestProcess_MissingEntryDropsCustomPrompt(t *testing.T) {
	chat := &mockChat{resp: &domain.ChatResponse{Response: "ok"}}
	entry := &domain.ConfigEntry{EntryID: "gone", Data: domain.EntryData{APIURL: "http://h"}, Options: domain.EntryOptions{CustomPrompt: "x"}}
	agent := service.NewAgent(entry, chat, store.NewMemoryStore(), observability.NewMetrics(), zap.NewNop())

	result := agent.Process(context.Background(), &domain.ConversationInput{Text: "hi"})

	assert.Equal(t, "ok", result.Response.Speech)
	assert.Empty(t, chat.last().CustomPrompt)
}

func TestAgentInfo(t *testing.T) {
	agent, _ := newTestAgent(t, &mockChat{}, domain.EntryData{APIURL: "http://h"}, domain.EntryOptions{})

	info := agent.Info()

	assert.Equal(t, "entry-1", info.UniqueID)
	assert.Equal(t, []string{domain.FeatureControl}, info.SupportedFeatures)
	assert.Equal(t, "*", info.SupportedLanguages)
	assert.Equal(t, "AI Assistant", info.Device.Model)
	assert.Equal(t, domain.DeviceEntryTypeService, info.Device.EntryType)
	assert.Equal(t, []domain.DeviceIdentifier{{Domain: "home_mind", ID: "entry-1"}}, info.Device.Identifiers)
}
