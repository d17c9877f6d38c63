package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
)

// Store manages job history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the history database inside the
// configured log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	return OpenPath(dbPath)
}

// OpenPath opens a history database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert stores a new job record. Timestamps are assigned here.
func (s *Store) Insert(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is required")
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	return s.execWithRetry(ctx, `
		INSERT INTO jobs (id, input_path, output_dir, command, status, exit_code,
			error_message, derived_path, derived_lines, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.InputPath, record.OutputDir, record.Command,
		string(record.Status), nullableInt(record.ExitCode), record.ErrorMessage,
		record.DerivedPath, record.DerivedLines,
		record.CreatedAt.Format(time.RFC3339Nano), record.UpdatedAt.Format(time.RFC3339Nano))
}

// Update rewrites the mutable fields of an existing record.
func (s *Store) Update(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is required")
	}
	record.UpdatedAt = time.Now().UTC()

	return s.execWithRetry(ctx, `
		UPDATE jobs SET status = ?, exit_code = ?, error_message = ?,
			derived_path = ?, derived_lines = ?, updated_at = ?
		WHERE id = ?`,
		string(record.Status), nullableInt(record.ExitCode), record.ErrorMessage,
		record.DerivedPath, record.DerivedLines,
		record.UpdatedAt.Format(time.RFC3339Nano), record.ID)
}

// Get returns the record with the given ID, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM jobs WHERE id = ?", id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return record, nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	ctx = ensureContext(ctx)
	query := selectColumns + " FROM jobs ORDER BY created_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

const selectColumns = `SELECT id, input_path, output_dir, command, status, exit_code,
	error_message, derived_path, derived_lines, created_at, updated_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var (
		record    Record
		status    string
		exitCode  sql.NullInt64
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&record.ID, &record.InputPath, &record.OutputDir,
		&record.Command, &status, &exitCode, &record.ErrorMessage,
		&record.DerivedPath, &record.DerivedLines, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.Status = Status(status)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		record.ExitCode = &code
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		record.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		record.UpdatedAt = ts
	}
	return &record, nil
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
