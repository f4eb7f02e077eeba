package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gaussdec/internal/model"
)

// CreateRun records a new run in the current batch. The record becomes
// visible to readers at the next flush, together with the components the
// run produced by then.
func (s *Store) CreateRun(run model.Run) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.tx.Exec(`
		INSERT INTO runs (id, infile, mode, config, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Infile, run.Mode, run.Config, run.Status, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("store %s: create run %s: %w", s.path, run.ID, err)
	}
	return nil
}

// RecordCheckpoint updates the run counters in the current batch. Called
// immediately before Flush, it commits atomically with the components it
// accounts for.
func (s *Store) RecordCheckpoint(id string, counts model.RunCounts) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.tx.Exec(`
		UPDATE runs
		SET units = ?, fitted = ?, skipped = ?, filtered = ?, components = ?,
		    checkpoint_units = ?, checkpoint_at = ?
		WHERE id = ?`,
		counts.Units, counts.Fitted, counts.Skipped, counts.Filtered, counts.Components,
		counts.Units, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("store %s: checkpoint run %s: %w", s.path, id, err)
	}
	return nil
}

// FinishRun marks a run completed or failed with its final counters.
func (s *Store) FinishRun(id, status string, counts model.RunCounts) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.tx.Exec(`
		UPDATE runs
		SET status = ?, finished_at = ?,
		    units = ?, fitted = ?, skipped = ?, filtered = ?, components = ?
		WHERE id = ?`,
		status, time.Now().UTC(),
		counts.Units, counts.Fitted, counts.Skipped, counts.Filtered, counts.Components,
		id,
	)
	if err != nil {
		return fmt.Errorf("store %s: finish run %s: %w", s.path, id, err)
	}
	return nil
}

const runColumns = `id, infile, mode, config, status, started_at, finished_at,
	units, fitted, skipped, filtered, components, checkpoint_units, checkpoint_at`

func scanRun(row interface{ Scan(...any) error }) (model.Run, error) {
	var (
		run          model.Run
		finishedAt   sql.NullTime
		checkpointAt sql.NullTime
	)
	err := row.Scan(
		&run.ID, &run.Infile, &run.Mode, &run.Config, &run.Status,
		&run.StartedAt, &finishedAt,
		&run.Counts.Units, &run.Counts.Fitted, &run.Counts.Skipped,
		&run.Counts.Filtered, &run.Counts.Components,
		&run.CheckpointUnits, &checkpointAt,
	)
	if err != nil {
		return model.Run{}, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if checkpointAt.Valid {
		t := checkpointAt.Time
		run.CheckpointAt = &t
	}
	return run, nil
}

// GetRun returns a run by ID. Only flushed state is visible.
func (s *Store) GetRun(id string) (model.Run, error) {
	if s.closed {
		return model.Run{}, ErrStoreClosed
	}
	run, err := scanRun(s.db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("store %s: get run %s: %w", s.path, id, err)
	}
	return run, nil
}

// ListRuns returns all flushed runs, newest first.
func (s *Store) ListRuns() ([]model.Run, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store %s: list runs: %w", s.path, err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store %s: list runs: %w", s.path, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store %s: list runs: %w", s.path, err)
	}
	return runs, nil
}
