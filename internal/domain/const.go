package domain

import "time"

// Integration identity and config keys.
const (
	Domain           = "home_mind"
	ConfAPIURL       = "api_url"
	ConfUserID       = "user_id"
	ConfCustomPrompt = "custom_prompt"

	EntryTitle = "Home Mind"
)

// Defaults offered by the setup form.
const (
	DefaultAPIURL = "http://localhost:3100"
	DefaultUserID = "default"
)

// Remote API contract.
const (
	ChatEndpoint   = "/api/chat"
	HealthEndpoint = "/api/health"

	HealthStatusOK = "ok"

	// The remote service may itself be waiting on a slow upstream model with tool use.
	DefaultChatTimeout   = 120 * time.Second
	DefaultHealthTimeout = 10 * time.Second
)

// NoResponseFallback is spoken when the API answers 200 without a usable response.
const NoResponseFallback = "I received your request but got no response."

// MatchAll is the supported-languages marker for agents that accept any language.
const MatchAll = "*"
