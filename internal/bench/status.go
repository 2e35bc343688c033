package bench

import (
	"context"

	"llmbench/internal/store"
	"llmbench/pkg/types"
)

// Status returns a copy of the live run progress.
func (o *Orchestrator) Status() types.StatusResponse {
	return o.progress.snapshot()
}

// Ready reports whether the store is usable.
func (o *Orchestrator) Ready(ctx context.Context) error {
	return o.st.Check(ctx)
}

// Sessions lists stored sessions, newest first. limit <= 0 means no limit.
func (o *Orchestrator) Sessions(ctx context.Context, limit int, incompleteOnly bool) ([]types.Session, error) {
	var (
		rows []store.Session
		err  error
	)
	if incompleteOnly {
		rows, err = o.tracker.Incomplete(ctx)
	} else {
		rows, err = o.st.Sessions(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	if incompleteOnly && limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]types.Session, 0, len(rows))
	for _, s := range rows {
		out = append(out, SessionView(s))
	}
	return out, nil
}

// SessionView converts a stored session to its JSON form.
func SessionView(s store.Session) types.Session {
	v := types.Session{
		ID:              s.ID,
		Description:     s.Description,
		TotalModels:     s.TotalModels,
		TotalPrompts:    s.TotalPrompts,
		ModelsCompleted: s.ModelsCompleted,
		Status:          s.Status,
		StartUnix:       s.StartTime.Unix(),
	}
	if s.EndTime != nil {
		v.EndUnix = s.EndTime.Unix()
	}
	return v
}
