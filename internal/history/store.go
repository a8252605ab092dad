package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"larder/internal/config"
)

// Status classifies how a backup cycle ended.
type Status string

const (
	StatusCompleted    Status = "completed"
	StatusSkippedSpace Status = "skipped_space"
	StatusFailed       Status = "failed"
)

// Record is one cycle's outcome as persisted in the catalog.
type Record struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       Status
	ArchiveName  string
	ArchiveBytes int64
	Pruned       int
	Message      string
}

// Store manages the cycle-history catalog backed by SQLite. The catalog is
// advisory: failures to record history never fail a backup cycle.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database inside the backup
// destination and ensures the schema is current.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DestinationDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
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

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the catalog file location.
func (s *Store) Path() string {
	return s.path
}

// Append persists one finished cycle and returns it with its assigned ID.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.Status == "" {
		return Record{}, errors.New("record status is required")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cycle_history (
            started_at, finished_at, status, archive_name, archive_bytes, pruned, message
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(rec.Status),
		nullableString(rec.ArchiveName),
		rec.ArchiveBytes,
		rec.Pruned,
		nullableString(rec.Message),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert cycle record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// List returns the most recent cycles, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, started_at, finished_at, status, archive_name, archive_bytes, pruned, message
              FROM cycle_history ORDER BY started_at DESC, id DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list cycle history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec          Record
		startedAt    string
		finishedAt   string
		status       string
		archiveName  sql.NullString
		message      sql.NullString
	)
	if err := rows.Scan(&rec.ID, &startedAt, &finishedAt, &status, &archiveName, &rec.ArchiveBytes, &rec.Pruned, &message); err != nil {
		return Record{}, fmt.Errorf("scan cycle record: %w", err)
	}
	var err error
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Record{}, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return Record{}, fmt.Errorf("parse finished_at: %w", err)
	}
	rec.Status = Status(status)
	rec.ArchiveName = archiveName.String
	rec.Message = message.String
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
