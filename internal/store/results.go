package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertResult commits one result row immediately.
func (s *Store) InsertResult(ctx context.Context, r Result) (int64, error) {
	var id int64
	err := s.queryRow(ctx, `INSERT INTO Results
		(session_id, model_id, prompt_id, output_text, execution_time_seconds, tokens_generated, tokens_per_second, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		r.SessionID, r.ModelID, deref(r.PromptID), deref(r.OutputText), deref(r.ExecSeconds),
		deref(r.TokensGenerated), deref(r.TokensPerSecond), deref(r.Error)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert result (session %d, model %d): %w", r.SessionID, r.ModelID, err)
	}
	return id, nil
}

// SessionResults returns every result of a session ordered by id.
func (s *Store) SessionResults(ctx context.Context, sessionID int64) ([]Result, error) {
	rows, err := s.query(ctx, `SELECT id, session_id, model_id, prompt_id, output_text, execution_time_seconds,
		tokens_generated, tokens_per_second, error_message
		FROM Results WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query results for session %d: %w", sessionID, err)
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var r Result
		var (
			prompt sql.NullInt64
			output sql.NullString
			secs   sql.NullFloat64
			tokens sql.NullInt64
			tps    sql.NullFloat64
			msg    sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ModelID, &prompt, &output, &secs, &tokens, &tps, &msg); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if prompt.Valid {
			r.PromptID = &prompt.Int64
		}
		if output.Valid {
			r.OutputText = &output.String
		}
		if secs.Valid {
			r.ExecSeconds = &secs.Float64
		}
		if tokens.Valid {
			n := int(tokens.Int64)
			r.TokensGenerated = &n
		}
		if tps.Valid {
			r.TokensPerSecond = &tps.Float64
		}
		if msg.Valid {
			r.Error = &msg.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary reads the ResultsSummary view, oldest result first. sessionID
// of zero selects every session.
func (s *Store) Summary(ctx context.Context, sessionID int64) ([]SummaryRow, error) {
	q := `SELECT result_id, session_id, session_description, model_filename, quantization, file_size_mb,
		prompt_id, prompt_category, prompt_text, output_text, execution_time_seconds, tokens_generated,
		tokens_per_second, error_message FROM ResultsSummary`
	var args []any
	if sessionID > 0 {
		q += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	q += ` ORDER BY result_id`
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query results summary: %w", err)
	}
	defer rows.Close()
	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		var (
			desc, quant, cat, text, output, msg sql.NullString
			size, secs, tps                     sql.NullFloat64
			prompt, tokens                      sql.NullInt64
		)
		if err := rows.Scan(&r.ResultID, &r.SessionID, &desc, &r.ModelFilename, &quant, &size,
			&prompt, &cat, &text, &output, &secs, &tokens, &tps, &msg); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		r.SessionDescription = desc.String
		r.Quantization = quant.String
		r.FileSizeMB = size.Float64
		r.PromptCategory = cat.String
		r.PromptText = text.String
		r.OutputText = output.String
		r.Error = msg.String
		if prompt.Valid {
			r.PromptID = &prompt.Int64
		}
		if secs.Valid {
			r.ExecSeconds = &secs.Float64
		}
		if tokens.Valid {
			r.TokensGenerated = &tokens.Int64
		}
		if tps.Valid {
			r.TokensPerSecond = &tps.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
