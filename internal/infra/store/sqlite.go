package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("store")

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps config entries in a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; SQLite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const selectEntry = `SELECT entry_id, domain, title, api_url, user_id, custom_prompt, created_at, updated_at FROM config_entries`

// Create inserts a new entry. Timestamps are set by the store.
func (s *SQLiteStore) Create(ctx context.Context, entry *domain.ConfigEntry) error {
	ctx, span := tracer.Start(ctx, "SQLiteStore.Create")
	defer span.End()

	if entry.EntryID == "" {
		return &domain.ErrValidation{Field: "entry_id", Message: "must not be empty"}
	}

	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO config_entries(entry_id, domain, title, api_url, user_id, custom_prompt, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		entry.EntryID, entry.Domain, entry.Title, entry.Data.APIURL, entry.Data.UserID,
		entry.Options.CustomPrompt, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return &domain.ErrValidation{Field: "entry_id", Message: "already exists"}
		}
		return fmt.Errorf("insert config entry: %w", err)
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

// Get returns one entry.
func (s *SQLiteStore) Get(ctx context.Context, entryID string) (*domain.ConfigEntry, error) {
	ctx, span := tracer.Start(ctx, "SQLiteStore.Get")
	defer span.End()

	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE entry_id = ?`, entryID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "config entry", ID: entryID}
	}
	if err != nil {
		return nil, fmt.Errorf("get config entry: %w", err)
	}
	return e, nil
}

// List returns all entries ordered by creation time.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.ConfigEntry, error) {
	ctx, span := tracer.Start(ctx, "SQLiteStore.List")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, selectEntry+` ORDER BY created_at, entry_id`)
	if err != nil {
		return nil, fmt.Errorf("list config entries: %w", err)
	}
	defer rows.Close()

	out := []domain.ConfigEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan config entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// UpdateOptions replaces the options of an entry.
func (s *SQLiteStore) UpdateOptions(ctx context.Context, entryID string, opts domain.EntryOptions) (*domain.ConfigEntry, error) {
	ctx, span := tracer.Start(ctx, "SQLiteStore.UpdateOptions")
	defer span.End()

	res, err := s.db.ExecContext(ctx,
		`UPDATE config_entries SET custom_prompt = ?, updated_at = ? WHERE entry_id = ?`,
		opts.CustomPrompt, s.now().UTC().Format(time.RFC3339Nano), entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("update options: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ErrNotFound{Resource: "config entry", ID: entryID}
	}
	return s.Get(ctx, entryID)
}

// Delete removes an entry.
func (s *SQLiteStore) Delete(ctx context.Context, entryID string) error {
	ctx, span := tracer.Start(ctx, "SQLiteStore.Delete")
	defer span.End()

	res, err := s.db.ExecContext(ctx, `DELETE FROM config_entries WHERE entry_id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("delete config entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "config entry", ID: entryID}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.ConfigEntry, error) {
	var (
		e                    domain.ConfigEntry
		createdAt, updatedAt string
	)
	if err := row.Scan(&e.EntryID, &e.Domain, &e.Title, &e.Data.APIURL, &e.Data.UserID,
		&e.Options.CustomPrompt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &e, nil
}
