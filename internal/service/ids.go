package service

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid"
)

// NewConversationID returns a fresh ULID: unique and lexically sortable by creation time.
func NewConversationID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// NewEntryID returns a fresh config entry id.
func NewEntryID() string {
	return uuid.NewString()
}
