package store

import (
	"context"
	"fmt"
)

// ActivePrompts returns the active prompts in insertion order.
func (s *Store) ActivePrompts(ctx context.Context) ([]Prompt, error) {
	rows, err := s.query(ctx, `SELECT id, prompt_text, category FROM Prompts WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active prompts: %w", err)
	}
	defer rows.Close()
	var out []Prompt
	for rows.Next() {
		p := Prompt{Active: true}
		if err := rows.Scan(&p.ID, &p.Text, &p.Category); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPrompts adds prompts in one transaction and returns how many were
// written. Empty categories become "General".
func (s *Store) InsertPrompts(ctx context.Context, prompts []Prompt) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prompt import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.rebind(`INSERT INTO Prompts (prompt_text, category, active) VALUES (?, ?, ?)`)
	n := 0
	for _, p := range prompts {
		cat := p.Category
		if cat == "" {
			cat = "General"
		}
		active := 0
		if p.Active {
			active = 1
		}
		if _, err := tx.ExecContext(ctx, q, p.Text, cat, active); err != nil {
			return 0, fmt.Errorf("insert prompt: %w", err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prompt import: %w", err)
	}
	return n, nil
}

// SetPromptActive toggles a prompt in or out of the benchmark set.
func (s *Store) SetPromptActive(ctx context.Context, id int64, active bool) error {
	v := 0
	if active {
		v = 1
	}
	res, err := s.exec(ctx, `UPDATE Prompts SET active = ? WHERE id = ?`, v, id)
	if err != nil {
		return fmt.Errorf("update prompt %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("prompt %d: %w", id, ErrNotFound)
	}
	return nil
}
