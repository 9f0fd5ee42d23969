package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/channel-kanban/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// snapshotRow is a cached JSON payload with the time it was fetched.
type snapshotRow struct {
	Payload   string    `db:"payload"`
	FetchedAt time.Time `db:"fetched_at"`
}

// SaveStructure replaces the cached structure tree.
func (s *SQLiteStore) SaveStructure(ctx context.Context, st model.Structure) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling structure: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO structure_snapshots (id, payload, fetched_at)
		VALUES (1, ?, ?)`,
		string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving structure snapshot: %w", err)
	}
	return nil
}

// LoadStructure returns the cached structure tree, or nil if none was saved.
func (s *SQLiteStore) LoadStructure(ctx context.Context) (*model.Structure, time.Time, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		"SELECT payload, fetched_at FROM structure_snapshots WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading structure snapshot: %w", err)
	}

	var st model.Structure
	if err := json.Unmarshal([]byte(row.Payload), &st); err != nil {
		return nil, time.Time{}, fmt.Errorf("unmarshaling structure snapshot: %w", err)
	}
	return &st, row.FetchedAt, nil
}

// SaveBoard replaces the cached board of one entity.
func (s *SQLiteStore) SaveBoard(ctx context.Context, b model.Board) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling board %d: %w", b.Entity.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO board_snapshots (entity_id, payload, fetched_at)
		VALUES (?, ?, ?)`,
		b.Entity.ID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving board snapshot %d: %w", b.Entity.ID, err)
	}
	return nil
}

// LoadBoard returns the cached board of an entity, or nil if none was saved.
func (s *SQLiteStore) LoadBoard(ctx context.Context, entityID int64) (*model.Board, time.Time, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		"SELECT payload, fetched_at FROM board_snapshots WHERE entity_id = ?", entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading board snapshot %d: %w", entityID, err)
	}

	var b model.Board
	if err := json.Unmarshal([]byte(row.Payload), &b); err != nil {
		return nil, time.Time{}, fmt.Errorf("unmarshaling board snapshot %d: %w", entityID, err)
	}
	return &b, row.FetchedAt, nil
}

// RecordDispatch appends an upload-trigger evaluation to the log.
func (s *SQLiteStore) RecordDispatch(ctx context.Context, d model.Dispatch) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.CreatedAt = d.CreatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO trigger_dispatches (
			id, spreadsheet_id, sheet_row, title,
			outcome, reason, status_code, marker, created_at
		) VALUES (
			:id, :spreadsheet_id, :sheet_row, :title,
			:outcome, :reason, :status_code, :marker, :created_at
		)`, d)
	if err != nil {
		return fmt.Errorf("recording dispatch %s: %w", d.ID, err)
	}
	return nil
}

// GetDispatches lists logged dispatches, newest first.
func (s *SQLiteStore) GetDispatches(ctx context.Context, filter DispatchFilter) ([]model.Dispatch, error) {
	var conditions []string
	var args []interface{}

	if filter.Outcome != nil {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(*filter.Outcome))
	}
	if filter.SpreadsheetID != nil {
		conditions = append(conditions, "spreadsheet_id = ?")
		args = append(args, *filter.SpreadsheetID)
	}

	query := "SELECT * FROM trigger_dispatches"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var out []model.Dispatch
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("querying dispatches: %w", err)
	}
	return out, nil
}
