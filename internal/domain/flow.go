package domain

// ============================================================
// Config flows: forms shown by the host
// ============================================================

// Flow step ids.
const (
	StepUser = "user"
	StepInit = "init"
)

// Flow result types.
const (
	FlowResultForm        = "form"
	FlowResultCreateEntry = "create_entry"
)

// Form error keys.
const (
	FormErrorBase          = "base"
	FormErrorCannotConnect = "cannot_connect"
	FormErrorUnknown       = "unknown"
	FormErrorInvalidURL    = "invalid_url"
)

// FormField is one field of a flow form.
type FormField struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Required       bool   `json:"required"`
	Default        string `json:"default,omitempty"`
	SuggestedValue string `json:"suggested_value,omitempty"`
}

// FlowResult is returned by every flow step: either a form to (re)display or
// the entry that was created.
type FlowResult struct {
	Type    string            `json:"type"`
	StepID  string            `json:"step_id,omitempty"`
	Fields  []FormField       `json:"data_schema,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Title   string            `json:"title,omitempty"`
	EntryID string            `json:"entry_id,omitempty"`
}

// UserStepInput is submitted to the user step of the setup flow.
// A nil field was not submitted and takes its default.
type UserStepInput struct {
	APIURL *string `json:"api_url"`
	UserID *string `json:"user_id"`
}

// OptionsStepInput is submitted to the init step of the options flow.
type OptionsStepInput struct {
	CustomPrompt string `json:"custom_prompt"`
}

// ValidationInfo is returned by a successful setup validation.
type ValidationInfo struct {
	Title string `json:"title"`
}
