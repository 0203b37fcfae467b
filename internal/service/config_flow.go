package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/port"

	"go.uber.org/zap"
)

// ConfigFlow drives entry setup (user step) and the options form (init step).
type ConfigFlow struct {
	validator *Validator
	store     port.EntryStore
	registry  *Registry
	metrics   *observability.Metrics
	logger    *zap.Logger

	newEntryID func() string
}

// NewConfigFlow creates the setup and options flow handler.
func NewConfigFlow(
	validator *Validator,
	store port.EntryStore,
	registry *Registry,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ConfigFlow {
	return &ConfigFlow{
		validator:  validator,
		store:      store,
		registry:   registry,
		metrics:    metrics,
		logger:     logger,
		newEntryID: NewEntryID,
	}
}

// UserForm returns the empty setup form.
func (f *ConfigFlow) UserForm() *domain.FlowResult {
	return userForm(nil)
}

func userForm(errs map[string]string) *domain.FlowResult {
	return &domain.FlowResult{
		Type:   domain.FlowResultForm,
		StepID: domain.StepUser,
		Fields: []domain.FormField{
			{Name: domain.ConfAPIURL, Type: "string", Required: true, Default: domain.DefaultAPIURL},
			{Name: domain.ConfUserID, Type: "string", Default: domain.DefaultUserID},
		},
		Errors: errs,
	}
}

// SubmitUser validates the submitted API and creates the entry.
// Validation failures redisplay the form with an error; the returned error
// is reserved for persistence failures.
func (f *ConfigFlow) SubmitUser(ctx context.Context, in domain.UserStepInput) (*domain.FlowResult, error) {
	ctx, span := tracer.Start(ctx, "ConfigFlow.SubmitUser")
	defer span.End()

	apiURL := domain.DefaultAPIURL
	if in.APIURL != nil {
		apiURL = domain.NormalizeAPIURL(*in.APIURL)
	}
	// blank user ids are stored as the default, the value chat calls send
	userID := domain.DefaultUserID
	if in.UserID != nil && strings.TrimSpace(*in.UserID) != "" {
		userID = strings.TrimSpace(*in.UserID)
	}

	if apiURL == "" {
		f.metrics.IncrSetupAttempt(domain.FormErrorInvalidURL)
		return userForm(map[string]string{domain.ConfAPIURL: domain.FormErrorInvalidURL}), nil
	}

	info, err := f.validator.Validate(ctx, apiURL)
	if err != nil {
		var cannotConnect *domain.ErrCannotConnect
		if errors.As(err, &cannotConnect) {
			f.metrics.IncrSetupAttempt(domain.FormErrorCannotConnect)
			return userForm(map[string]string{domain.FormErrorBase: domain.FormErrorCannotConnect}), nil
		}
		f.logger.Error("unexpected error validating Home Mind API", zap.String("api_url", apiURL), zap.Error(err))
		f.metrics.IncrSetupAttempt(domain.FormErrorUnknown)
		return userForm(map[string]string{domain.FormErrorBase: domain.FormErrorUnknown}), nil
	}
	f.metrics.IncrSetupAttempt("ok")

	entry := &domain.ConfigEntry{
		EntryID: f.newEntryID(),
		Domain:  domain.Domain,
		Title:   info.Title,
		Data:    domain.EntryData{APIURL: apiURL, UserID: userID},
	}
	if err := f.store.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create config entry: %w", err)
	}
	f.registry.Setup(entry)

	f.logger.Info("config entry created",
		zap.String("entry_id", entry.EntryID),
		zap.String("api_url", apiURL),
		zap.String("user_id", userID),
	)

	return &domain.FlowResult{
		Type:    domain.FlowResultCreateEntry,
		Title:   entry.Title,
		EntryID: entry.EntryID,
	}, nil
}

// OptionsForm returns the options form pre-filled with the stored custom prompt.
func (f *ConfigFlow) OptionsForm(ctx context.Context, entryID string) (*domain.FlowResult, error) {
	entry, err := f.store.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return &domain.FlowResult{
		Type:   domain.FlowResultForm,
		StepID: domain.StepInit,
		Fields: []domain.FormField{
			{Name: domain.ConfCustomPrompt, Type: "string", SuggestedValue: entry.Options.CustomPrompt},
		},
		EntryID: entryID,
	}, nil
}

// SubmitOptions stores the options as submitted; there is nothing to validate.
func (f *ConfigFlow) SubmitOptions(ctx context.Context, entryID string, in domain.OptionsStepInput) (*domain.FlowResult, error) {
	ctx, span := tracer.Start(ctx, "ConfigFlow.SubmitOptions")
	defer span.End()

	if _, err := f.store.UpdateOptions(ctx, entryID, domain.EntryOptions{CustomPrompt: in.CustomPrompt}); err != nil {
		return nil, err
	}
	f.logger.Info("options updated",
		zap.String("entry_id", entryID),
		zap.Bool("custom_prompt", in.CustomPrompt != ""),
	)
	return &domain.FlowResult{Type: domain.FlowResultCreateEntry, EntryID: entryID}, nil
}

// RemoveEntry unloads the agent of an entry and deletes the entry.
func (f *ConfigFlow) RemoveEntry(ctx context.Context, entryID string) error {
	if err := f.store.Delete(ctx, entryID); err != nil {
		return err
	}
	f.registry.Unload(entryID)
	f.logger.Info("config entry removed", zap.String("entry_id", entryID))
	return nil
}
