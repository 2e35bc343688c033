package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ModelByFilename looks a model up by its unique filename.
func (s *Store) ModelByFilename(ctx context.Context, filename string) (Model, error) {
	var m Model
	var quant sql.NullString
	var size sql.NullFloat64
	err := s.queryRow(ctx, `SELECT id, filename, path, quantization, file_size_mb FROM Models WHERE filename = ?`, filename).
		Scan(&m.ID, &m.Filename, &m.Path, &quant, &size)
	if errors.Is(err, sql.ErrNoRows) {
		return Model{}, fmt.Errorf("model %q: %w", filename, ErrNotFound)
	}
	if err != nil {
		return Model{}, fmt.Errorf("select model %q: %w", filename, err)
	}
	if quant.Valid {
		q := quant.String
		m.Quantization = &q
	}
	m.FileSizeMB = size.Float64
	return m, nil
}

// InsertModel inserts m unless its filename is already present. It reports
// inserted=false when another row owns the filename; no row is modified then.
func (s *Store) InsertModel(ctx context.Context, m Model) (id int64, inserted bool, err error) {
	err = s.queryRow(ctx, `INSERT INTO Models (filename, path, quantization, file_size_mb)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (filename) DO NOTHING
		RETURNING id`, m.Filename, m.Path, deref(m.Quantization), m.FileSizeMB).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert model %q: %w", m.Filename, err)
	}
	return id, true, nil
}

// SetQuantizationIfNull writes label only while the stored value is NULL.
func (s *Store) SetQuantizationIfNull(ctx context.Context, modelID int64, label string) (bool, error) {
	res, err := s.exec(ctx, `UPDATE Models SET quantization = ? WHERE id = ? AND quantization IS NULL`, label, modelID)
	if err != nil {
		return false, fmt.Errorf("backfill quantization for model %d: %w", modelID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("backfill quantization for model %d: %w", modelID, err)
	}
	return n > 0, nil
}

// Models lists every registered model ordered by id.
func (s *Store) Models(ctx context.Context) ([]Model, error) {
	rows, err := s.query(ctx, `SELECT id, filename, path, quantization, file_size_mb FROM Models ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()
	var out []Model
	for rows.Next() {
		var m Model
		var quant sql.NullString
		var size sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Filename, &m.Path, &quant, &size); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		if quant.Valid {
			q := quant.String
			m.Quantization = &q
		}
		m.FileSizeMB = size.Float64
		out = append(out, m)
	}
	return out, rows.Err()
}

// BenchmarkedFilenames returns the filenames of models that have at least
// one Result in any session.
func (s *Store) BenchmarkedFilenames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.query(ctx, `SELECT DISTINCT m.filename FROM Results r JOIN Models m ON m.id = r.model_id`)
	if err != nil {
		return nil, fmt.Errorf("query benchmarked models: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan benchmarked model: %w", err)
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}
