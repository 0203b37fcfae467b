package domain

// ============================================================
// Conversation: host-facing input/result
// ============================================================

// InputContext carries the identity of whoever issued the utterance.
type InputContext struct {
	UserID string `json:"user_id,omitempty"`
}

// ConversationInput is one utterance handed to a conversation agent.
type ConversationInput struct {
	Text           string        `json:"text"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Language       string        `json:"language,omitempty"`
	AgentID        string        `json:"agent_id,omitempty"`
	Context        *InputContext `json:"context,omitempty"`
}

// CallerUserID returns the authenticated caller, or "" when unknown.
func (in *ConversationInput) CallerUserID() string {
	if in.Context == nil {
		return ""
	}
	return in.Context.UserID
}

// Response types of an IntentResponse.
const (
	ResponseTypeActionDone = "action_done"
	ResponseTypeError      = "error"
)

// ErrorCodeUnknown is the only intent error code this agent produces.
const ErrorCodeUnknown = "unknown"

// IntentResponse is the speech (or error) returned for an utterance.
type IntentResponse struct {
	Language     string `json:"language,omitempty"`
	ResponseType string `json:"response_type"`
	Speech       string `json:"speech"`
	ErrorCode    string `json:"error_code,omitempty"`
}

// NewIntentResponse creates an empty response in the given language.
func NewIntentResponse(language string) *IntentResponse {
	return &IntentResponse{Language: language, ResponseType: ResponseTypeActionDone}
}

// SetSpeech sets the plain speech text.
func (r *IntentResponse) SetSpeech(text string) {
	r.Speech = text
}

// SetError turns the response into an error response.
func (r *IntentResponse) SetError(code, message string) {
	r.ResponseType = ResponseTypeError
	r.ErrorCode = code
	r.Speech = message
}

// ConversationResult is what an agent returns for every utterance.
type ConversationResult struct {
	Response       *IntentResponse `json:"response"`
	ConversationID string          `json:"conversation_id"`
}

// ============================================================
// Conversation: remote Home Mind API payloads
// ============================================================

// ChatRequest is the body of POST {api_url}/api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	IsVoice        bool   `json:"isVoice"`
	CustomPrompt   string `json:"customPrompt,omitempty"`
}

// ChatResponse is the body of a successful chat reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// HealthResponse is the body of GET {api_url}/api/health.
type HealthResponse struct {
	Status string `json:"status"`
}
