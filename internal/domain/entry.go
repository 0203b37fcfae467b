package domain

import (
	"strings"
	"time"
)

// ============================================================
// Config entries: persisted by the host
// ============================================================

// EntryData is the immutable part of a config entry, set by the setup flow.
type EntryData struct {
	APIURL string `json:"api_url"`
	UserID string `json:"user_id"`
}

// EntryOptions is the mutable part of a config entry, edited by the options flow.
type EntryOptions struct {
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

// ConfigEntry is one configured Home Mind integration.
type ConfigEntry struct {
	EntryID   string       `json:"entry_id"`
	Domain    string       `json:"domain"`
	Title     string       `json:"title"`
	Data      EntryData    `json:"data"`
	Options   EntryOptions `json:"options"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NormalizeAPIURL trims surrounding whitespace and every trailing slash.
// Endpoint paths are concatenated directly onto the result.
func NormalizeAPIURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// DefaultedUserID returns the configured fallback user, or DefaultUserID when unset.
func (d EntryData) DefaultedUserID() string {
	if d.UserID == "" {
		return DefaultUserID
	}
	return d.UserID
}
