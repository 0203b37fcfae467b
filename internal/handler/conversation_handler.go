package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// GET /v1/agents
func listAgentsHandler(registry *service.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			serviceUnavailable(w)
			return
		}
		writeJSON(w, http.StatusOK, registry.List())
	}
}

// POST /v1/conversation/{entryId}/process
//
// Request:
//
//	{"text": "turn on the lights", "conversation_id": "...", "language": "en", "agent_id": "..."}
//
// Any failure talking to the Home Mind API still answers 200 with an
// error-flavoured result; only unknown entries and malformed bodies are HTTP errors.
// The text is forwarded as is, empty or not.
//
// With tokenIdentity set, the caller's user id only ever comes from a verified
// bearer token; a context in the body is discarded.
func processHandler(registry *service.Registry, tokenIdentity bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			serviceUnavailable(w)
			return
		}
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversation/{entryId}/process")
		defer span.End()

		entryID := chi.URLParam(r, "entryId")
		span.SetAttributes(attribute.String("entry.id", entryID))

		agent, err := registry.Get(entryID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var in domain.ConversationInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, `invalid request body: expected {"text": "your message"}`)
			return
		}
		if tokenIdentity {
			in.Context = nil
			if caller := CallerIDFromContext(ctx); caller != "" {
				in.Context = &domain.InputContext{UserID: caller}
			}
		}

		writeJSON(w, http.StatusOK, agent.Process(ctx, &in))
	}
}
