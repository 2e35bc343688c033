// Package session tracks the lifecycle of one benchmark run.
//
// A session moves from running to completed and nothing else. A process that
// dies mid-run leaves the row running with no end time; Incomplete surfaces
// those rows so an operator can rerun or clean up.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"llmbench/internal/store"
)

// SessionStore is the subset of the store the tracker needs.
type SessionStore interface {
	InsertSession(ctx context.Context, description string, totalModels, totalPrompts int, start time.Time) (int64, error)
	IncrementModelsCompleted(ctx context.Context, id int64) error
	FinishSession(ctx context.Context, id int64, status string, end time.Time) error
	IncompleteSessions(ctx context.Context) ([]store.Session, error)
}

type Tracker struct {
	st  SessionStore
	log zerolog.Logger
	now func() time.Time
}

func NewTracker(st SessionStore, log zerolog.Logger) *Tracker {
	return &Tracker{st: st, log: log.With().Str("component", "session").Logger(), now: time.Now}
}

// Open records a new running session with its declared scope.
func (t *Tracker) Open(ctx context.Context, description string, totalModels, totalPrompts int) (int64, error) {
	if totalModels < 0 || totalPrompts < 0 {
		return 0, fmt.Errorf("invalid session scope: models=%d prompts=%d", totalModels, totalPrompts)
	}
	id, err := t.st.InsertSession(ctx, description, totalModels, totalPrompts, t.now())
	if err != nil {
		return 0, err
	}
	t.log.Info().Int64("session_id", id).Int("models", totalModels).Int("prompts", totalPrompts).Msg("session opened")
	return id, nil
}

// Advance counts one more model as processed, whatever its outcome.
func (t *Tracker) Advance(ctx context.Context, id int64) error {
	return t.st.IncrementModelsCompleted(ctx, id)
}

// Close moves the session to its terminal status.
func (t *Tracker) Close(ctx context.Context, id int64, status string) error {
	if status != store.StatusCompleted {
		return fmt.Errorf("invalid session transition %s -> %q", store.StatusRunning, status)
	}
	if err := t.st.FinishSession(ctx, id, status, t.now()); err != nil {
		return err
	}
	t.log.Info().Int64("session_id", id).Str("status", status).Msg("session closed")
	return nil
}

// Incomplete returns sessions that never reached a terminal status.
func (t *Tracker) Incomplete(ctx context.Context) ([]store.Session, error) {
	return t.st.IncompleteSessions(ctx)
}
