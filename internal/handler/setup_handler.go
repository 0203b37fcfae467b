package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/port"
	"github.com/boddenberg/home-mind-bridge/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GET /v1/setup
func setupFormHandler(flow *service.ConfigFlow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			serviceUnavailable(w)
			return
		}
		writeJSON(w, http.StatusOK, flow.UserForm())
	}
}

// POST /v1/setup
//
// A failed validation is not an HTTP error: the form comes back with
// errors set, as the host redisplays it for the user to correct.
func setupSubmitHandler(flow *service.ConfigFlow, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			serviceUnavailable(w)
			return
		}
		ctx, span := tracer.Start(r.Context(), "POST /v1/setup")
		defer span.End()

		var in domain.UserStepInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := flow.SubmitUser(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		status := http.StatusOK
		if result.Type == domain.FlowResultCreateEntry {
			status = http.StatusCreated
		}
		writeJSON(w, status, result)
	}
}

// GET /v1/entries
func listEntriesHandler(entries port.EntryStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if entries == nil {
			serviceUnavailable(w)
			return
		}
		list, err := entries.List(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /v1/entries/{entryId}
func getEntryHandler(entries port.EntryStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if entries == nil {
			serviceUnavailable(w)
			return
		}
		entry, err := entries.Get(r.Context(), chi.URLParam(r, "entryId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

// DELETE /v1/entries/{entryId}
func deleteEntryHandler(flow *service.ConfigFlow, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			serviceUnavailable(w)
			return
		}
		if err := flow.RemoveEntry(r.Context(), chi.URLParam(r, "entryId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /v1/entries/{entryId}/options
func optionsFormHandler(flow *service.ConfigFlow, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			serviceUnavailable(w)
			return
		}
		form, err := flow.OptionsForm(r.Context(), chi.URLParam(r, "entryId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, form)
	}
}

// POST /v1/entries/{entryId}/options
func optionsSubmitHandler(flow *service.ConfigFlow, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			serviceUnavailable(w)
			return
		}
		ctx, span := tracer.Start(r.Context(), "POST /v1/entries/{entryId}/options")
		defer span.End()

		var in domain.OptionsStepInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := flow.SubmitOptions(ctx, chi.URLParam(r, "entryId"), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
