package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const entriesTable = "home_mind_entries"

// entryRow maps the home_mind_entries table columns.
type entryRow struct {
	EntryID      string    `json:"entry_id"`
	Domain       string    `json:"domain"`
	Title        string    `json:"title"`
	APIURL       string    `json:"api_url"`
	UserID       string    `json:"user_id"`
	CustomPrompt string    `json:"custom_prompt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func rowFromEntry(e *domain.ConfigEntry) entryRow {
	return entryRow{
		EntryID:      e.EntryID,
		Domain:       e.Domain,
		Title:        e.Title,
		APIURL:       e.Data.APIURL,
		UserID:       e.Data.UserID,
		CustomPrompt: e.Options.CustomPrompt,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func (r entryRow) toDomain() domain.ConfigEntry {
	return domain.ConfigEntry{
		EntryID:   r.EntryID,
		Domain:    r.Domain,
		Title:     r.Title,
		Data:      domain.EntryData{APIURL: r.APIURL, UserID: r.UserID},
		Options:   domain.EntryOptions{CustomPrompt: r.CustomPrompt},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func decodeRows(body []byte) ([]entryRow, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var rows []entryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", entriesTable, err)
	}
	return rows, nil
}

func byID(entryID string) string {
	return fmt.Sprintf("%s?entry_id=eq.%s", entriesTable, url.QueryEscape(entryID))
}

// EntryStore implements port.EntryStore on top of a Supabase table.
type EntryStore struct {
	client *Client
	now    func() time.Time
}

// NewEntryStore creates the store.
func NewEntryStore(client *Client) *EntryStore {
	return &EntryStore{client: client, now: time.Now}
}

// Ping checks that the table is reachable.
func (s *EntryStore) Ping(ctx context.Context) error {
	_, err := s.client.do(ctx, http.MethodGet, entriesTable+"?select=entry_id&limit=1", nil)
	return err
}

// Create inserts a new entry. Timestamps are set by the store.
func (s *EntryStore) Create(ctx context.Context, entry *domain.ConfigEntry) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateEntry")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", entry.EntryID))

	if entry.EntryID == "" {
		return &domain.ErrValidation{Field: "entry_id", Message: "must not be empty"}
	}

	now := s.now().UTC()
	row := rowFromEntry(entry)
	row.CreatedAt, row.UpdatedAt = now, now

	if _, err := s.client.do(ctx, http.MethodPost, entriesTable, row); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
			return &domain.ErrValidation{Field: "entry_id", Message: "already exists"}
		}
		return fmt.Errorf("insert config entry: %w", err)
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

// Get returns one entry.
func (s *EntryStore) Get(ctx context.Context, entryID string) (*domain.ConfigEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetEntry")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", entryID))

	body, err := s.client.do(ctx, http.MethodGet, byID(entryID)+"&limit=1", nil)
	if err != nil {
		return nil, fmt.Errorf("get config entry: %w", err)
	}
	return firstRow(body, entryID)
}

// List returns all entries ordered by creation time.
func (s *EntryStore) List(ctx context.Context) ([]domain.ConfigEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEntries")
	defer span.End()

	body, err := s.client.do(ctx, http.MethodGet, entriesTable+"?order=created_at.asc,entry_id.asc", nil)
	if err != nil {
		return nil, fmt.Errorf("list config entries: %w", err)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ConfigEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// UpdateOptions replaces the options of an entry.
func (s *EntryStore) UpdateOptions(ctx context.Context, entryID string, opts domain.EntryOptions) (*domain.ConfigEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateEntryOptions")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", entryID))

	body, err := s.client.do(ctx, http.MethodPatch, byID(entryID), map[string]any{
		"custom_prompt": opts.CustomPrompt,
		"updated_at":    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("update options: %w", err)
	}
	return firstRow(body, entryID)
}

// Delete removes an entry.
func (s *EntryStore) Delete(ctx context.Context, entryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteEntry")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", entryID))

	body, err := s.client.do(ctx, http.MethodDelete, byID(entryID), nil)
	if err != nil {
		return fmt.Errorf("delete config entry: %w", err)
	}
	_, err = firstRow(body, entryID)
	return err
}

// firstRow decodes a representation response; no rows means the entry does not exist.
func firstRow(body []byte, entryID string) (*domain.ConfigEntry, error) {
	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "config entry", ID: entryID}
	}
	e := rows[0].toDomain()
	return &e, nil
}
