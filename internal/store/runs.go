package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusExported = "exported"
	StatusFailed   = "failed"
)

// DefaultListLimit caps ListRuns when the caller passes a non-positive limit.
const DefaultListLimit = 20

// ErrInvalidStatus is returned when a run carries an unknown status.
var ErrInvalidStatus = errors.New("invalid run status")

// Run is one PreCompact export attempt.
type Run struct {
	ID           string     `json:"id" yaml:"id"`
	SessionID    string     `json:"session_id" yaml:"session_id"`
	ExportPath   string     `json:"export_path,omitempty" yaml:"export_path,omitempty"`
	Format       string     `json:"format" yaml:"format"`
	Status       string     `json:"status" yaml:"status"`
	Error        string     `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
	ReinjectedAt *time.Time `json:"reinjected_at,omitempty" yaml:"reinjected_at,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// RecordExport inserts run. An empty ID gets a fresh UUID and a zero
// CreatedAt is set to now. The stored run is returned.
func (s *Store) RecordExport(ctx context.Context, run Run) (Run, error) {
	if run.Status != StatusExported && run.Status != StatusFailed {
		return Run{}, fmt.Errorf("%w: %q", ErrInvalidStatus, run.Status)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	err := s.transact(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO export_runs (id, session_id, export_path, format, status, error, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.SessionID, run.ExportPath, run.Format, run.Status, run.Error, formatTime(run.CreatedAt))
		return err
	})
	if err != nil {
		return Run{}, fmt.Errorf("failed to record export run: %w", err)
	}
	return run, nil
}

// MarkReinjected stamps the newest not-yet-reinjected run for exportPath.
// Reports whether a run was updated.
func (s *Store) MarkReinjected(ctx context.Context, exportPath string, at time.Time) (bool, error) {
	var updated bool
	err := s.transact(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE export_runs SET reinjected_at = ?
			WHERE id = (
				SELECT id FROM export_runs
				WHERE export_path = ? AND status = ? AND reinjected_at IS NULL
				ORDER BY created_at DESC
				LIMIT 1
			)
		`, formatTime(at), exportPath, StatusExported)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		updated = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark reinjected: %w", err)
	}
	return updated, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, export_path, format, status, error, created_at, reinjected_at
		FROM export_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list export runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list export runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run        Run
		createdAt  string
		reinjected sql.NullString
	)
	if err := rows.Scan(&run.ID, &run.SessionID, &run.ExportPath, &run.Format,
		&run.Status, &run.Error, &createdAt, &reinjected); err != nil {
		return Run{}, fmt.Errorf("failed to scan export run: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = t
	if reinjected.Valid && reinjected.String != "" {
		rt, err := time.Parse(time.RFC3339Nano, reinjected.String)
		if err != nil {
			return Run{}, fmt.Errorf("failed to parse reinjected_at %q: %w", reinjected.String, err)
		}
		run.ReinjectedAt = &rt
	}
	return run, nil
}
