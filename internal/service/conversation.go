package service

import (
	"context"
	"errors"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// Agent is the conversation agent of one config entry. It forwards each
// utterance to the Home Mind API and turns the reply, or any failure, into
// a ConversationResult. Exchanges share no mutable state.
type Agent struct {
	entryID       string
	apiURL        string
	defaultUserID string

	chat    port.ChatCaller
	options port.OptionsSource
	metrics *observability.Metrics
	logger  *zap.Logger

	newConversationID func() string
}

// NewAgent creates the agent for entry. Options are re-read from options on
// every exchange so edits apply without re-creating the agent.
func NewAgent(
	entry *domain.ConfigEntry,
	chat port.ChatCaller,
	options port.OptionsSource,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Agent {
	return &Agent{
		entryID:           entry.EntryID,
		apiURL:            domain.NormalizeAPIURL(entry.Data.APIURL),
		defaultUserID:     entry.Data.DefaultedUserID(),
		chat:              chat,
		options:           options,
		metrics:           metrics,
		logger:            logger.With(zap.String("entry_id", entry.EntryID)),
		newConversationID: NewConversationID,
	}
}

// EntryID returns the config entry this agent belongs to.
func (a *Agent) EntryID() string {
	return a.entryID
}

// Info describes the agent entity.
func (a *Agent) Info() domain.AgentInfo {
	return domain.AgentInfo{
		UniqueID:           a.entryID,
		EntryID:            a.entryID,
		Name:               domain.EntryTitle,
		Device:             domain.NewDeviceInfo(a.entryID),
		SupportedFeatures:  []string{domain.FeatureControl},
		SupportedLanguages: domain.MatchAll,
	}
}

// Process runs one exchange. It never fails: API errors become an error
// response that keeps the conversation id, so the caller's session continues.
func (a *Agent) Process(ctx context.Context, in *domain.ConversationInput) *domain.ConversationResult {
	ctx, span := tracer.Start(ctx, "Agent.Process")
	defer span.End()

	a.logger.Debug("processing conversation input", zap.String("text", in.Text))

	userID := a.defaultUserID
	if caller := in.CallerUserID(); caller != "" {
		userID = caller
	}
	isVoice := in.AgentID != ""

	conversationID := in.ConversationID
	if conversationID == "" {
		conversationID = a.newConversationID()
	}
	span.SetAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.Bool("conversation.is_voice", isVoice),
	)

	resp := domain.NewIntentResponse(in.Language)

	text, fallback, err := a.callAPI(ctx, &domain.ChatRequest{
		Message:        in.Text,
		UserID:         userID,
		ConversationID: conversationID,
		IsVoice:        isVoice,
		CustomPrompt:   a.customPrompt(ctx),
	})
	if err != nil {
		a.logger.Error("error calling Home Mind API",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		a.metrics.IncrExchange(observability.ExchangeError)
		resp.SetError(domain.ErrorCodeUnknown, "Sorry, I couldn't process that request: "+err.Error())
		return &domain.ConversationResult{Response: resp, ConversationID: conversationID}
	}

	if fallback {
		a.metrics.IncrExchange(observability.ExchangeFallback)
	} else {
		a.metrics.IncrExchange(observability.ExchangeSuccess)
	}
	a.logger.Debug("got response", zap.String("response", truncate(text, 100)))

	resp.SetSpeech(text)
	return &domain.ConversationResult{Response: resp, ConversationID: conversationID}
}

// callAPI returns the speech text and whether the fixed fallback was substituted.
func (a *Agent) callAPI(ctx context.Context, req *domain.ChatRequest) (string, bool, error) {
	start := time.Now()
	chatResp, err := a.chat.Chat(ctx, a.apiURL, req)
	a.metrics.RecordRequestDuration("chat", time.Since(start))
	if err != nil {
		a.metrics.IncrExternalError("chat")
		var apiErr *domain.ErrAPI
		if !errors.As(err, &apiErr) {
			err = &domain.ErrAPI{Err: err}
		}
		return "", false, err
	}

	if chatResp == nil || chatResp.Response == "" {
		return domain.NoResponseFallback, true, nil
	}
	return chatResp.Response, false, nil
}

// customPrompt reads the current option; a lookup failure only drops the prompt.
func (a *Agent) customPrompt(ctx context.Context) string {
	entry, err := a.options.Get(ctx, a.entryID)
	if err != nil {
		a.logger.Warn("could not read entry options, sending without custom prompt", zap.Error(err))
		return ""
	}
	return entry.Options.CustomPrompt
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
