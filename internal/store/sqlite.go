package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/halverson/marionette/internal/model"

	_ "modernc.org/sqlite"
)

const createTransitionsTable = `
CREATE TABLE IF NOT EXISTS transitions (
    id          TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    reason      TEXT,
    app_count   INTEGER NOT NULL DEFAULT 0,
    aux_count   INTEGER NOT NULL DEFAULT 0,
    calling_pid INTEGER NOT NULL,
    calling_uid INTEGER NOT NULL,
    created_at  DATETIME NOT NULL,
    started_at  DATETIME,
    finished_at DATETIME
)`

// ErrNotFound is returned when a transition is not found.
var ErrNotFound = errors.New("transition not found")

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createTransitionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create transitions table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTransition inserts a new transition record.
func (s *SQLiteStore) CreateTransition(ctx context.Context, t *model.Transition) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (
			id, status, reason, app_count, aux_count,
			calling_pid, calling_uid, created_at, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Status, t.Reason, t.AppCount, t.AuxCount,
		t.CallingPID, t.CallingUID, t.CreatedAt, t.StartedAt, t.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// GetTransition retrieves a transition by ID.
func (s *SQLiteStore) GetTransition(ctx context.Context, id string) (*model.Transition, error) {
	t := &model.Transition{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, reason, app_count, aux_count,
			calling_pid, calling_uid, created_at, started_at, finished_at
		FROM transitions WHERE id = ?`, id,
	).Scan(
		&t.ID, &t.Status, &t.Reason, &t.AppCount, &t.AuxCount,
		&t.CallingPID, &t.CallingUID, &t.CreatedAt, &t.StartedAt, &t.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transition: %w", err)
	}
	return t, nil
}

// ListTransitions returns a paginated list of transitions ordered by
// created_at DESC, along with the total count of all transitions.
func (s *SQLiteStore) ListTransitions(ctx context.Context, limit, offset int) ([]*model.Transition, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM transitions").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transitions: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, status, reason, app_count, aux_count,
			calling_pid, calling_uid, created_at, started_at, finished_at
		FROM transitions ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var transitions []*model.Transition
	for rows.Next() {
		t := &model.Transition{}
		if err := rows.Scan(
			&t.ID, &t.Status, &t.Reason, &t.AppCount, &t.AuxCount,
			&t.CallingPID, &t.CallingUID, &t.CreatedAt, &t.StartedAt, &t.FinishedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan transition: %w", err)
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transitions: %w", err)
	}

	return transitions, total, nil
}

// MarkTransitionRunning moves a transition to running and records how many
// app and auxiliary targets went out in the start call.
func (s *SQLiteStore) MarkTransitionRunning(ctx context.Context, id string, appCount, auxCount int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE transitions SET status = ?, app_count = ?, aux_count = ?, started_at = ?
		WHERE id = ? AND status = ?`,
		model.StatusRunning, appCount, auxCount, time.Now().UTC(), id, model.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark transition running: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkTransitionFinished moves a transition to a terminal status (finished
// or canceled) and stamps finished_at. The reason records why a canceled
// transition was canceled.
func (s *SQLiteStore) MarkTransitionFinished(ctx context.Context, id, status, reason string) error {
	if status != model.StatusFinished && status != model.StatusCanceled {
		return ErrInvalidTransition
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE transitions SET status = ?, reason = ?, finished_at = ? WHERE id = ?",
		status, reason, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark transition finished: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetTransitionStats aggregates counts by status and cancel reason plus the
// average wall-clock duration of terminal transitions.
func (s *SQLiteStore) GetTransitionStats(ctx context.Context) (*TransitionStats, error) {
	stats := &TransitionStats{
		CountByStatus: make(map[string]int),
		CountByReason: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM transitions GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.CountByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	reasonRows, err := s.db.QueryContext(ctx,
		`SELECT reason, COUNT(*) FROM transitions
		WHERE status = ? AND reason IS NOT NULL AND reason != ''
		GROUP BY reason`, model.StatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("count by reason: %w", err)
	}
	defer reasonRows.Close()

	for reasonRows.Next() {
		var reason string
		var count int
		if err := reasonRows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("scan reason count: %w", err)
		}
		stats.CountByReason[reason] = count
	}
	if err := reasonRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reason counts: %w", err)
	}

	var avg sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		`SELECT AVG((julianday(finished_at) - julianday(started_at)) * 86400000.0)
		FROM transitions WHERE started_at IS NOT NULL AND finished_at IS NOT NULL`,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average duration: %w", err)
	}
	if avg.Valid {
		stats.AvgDurationMS = avg.Float64
	}

	return stats, nil
}
