package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = `id, description, total_models, total_prompts, models_completed, status, start_time, end_time`

// InsertSession creates a running session and returns its id.
func (s *Store) InsertSession(ctx context.Context, description string, totalModels, totalPrompts int, start time.Time) (int64, error) {
	var id int64
	err := s.queryRow(ctx, `INSERT INTO Sessions (description, total_models, total_prompts, models_completed, status, start_time)
		VALUES (?, ?, ?, 0, ?, ?) RETURNING id`,
		description, totalModels, totalPrompts, StatusRunning, start.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// IncrementModelsCompleted bumps the progress counter by one.
func (s *Store) IncrementModelsCompleted(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `UPDATE Sessions SET models_completed = models_completed + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("advance session %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return nil
}

// FinishSession records the terminal status and end time.
func (s *Store) FinishSession(ctx context.Context, id int64, status string, end time.Time) error {
	res, err := s.exec(ctx, `UPDATE Sessions SET status = ?, end_time = ? WHERE id = ?`, status, end.UTC(), id)
	if err != nil {
		return fmt.Errorf("close session %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) Session(ctx context.Context, id int64) (Session, error) {
	row := s.queryRow(ctx, `SELECT `+sessionColumns+` FROM Sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("select session %d: %w", id, err)
	}
	return sess, nil
}

// Sessions returns the most recent sessions first. limit <= 0 means all.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM Sessions ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.sessions(ctx, q, args...)
}

// IncompleteSessions lists sessions left running without an end time.
func (s *Store) IncompleteSessions(ctx context.Context) ([]Session, error) {
	return s.sessions(ctx, `SELECT `+sessionColumns+` FROM Sessions WHERE status = ? AND end_time IS NULL ORDER BY id`, StatusRunning)
}

func (s *Store) sessions(ctx context.Context, q string, args ...any) ([]Session, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var sess Session
	var desc sql.NullString
	var end sql.NullTime
	if err := sc.Scan(&sess.ID, &desc, &sess.TotalModels, &sess.TotalPrompts, &sess.ModelsCompleted, &sess.Status, &sess.StartTime, &end); err != nil {
		return Session{}, err
	}
	sess.Description = desc.String
	if end.Valid {
		t := end.Time
		sess.EndTime = &t
	}
	return sess, nil
}
