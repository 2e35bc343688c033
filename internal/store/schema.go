package store

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`PRAGMA journal_mode = WAL;`,
	`PRAGMA foreign_keys = ON;`,
	`CREATE TABLE IF NOT EXISTS Prompts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prompt_text TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'General',
		active INTEGER NOT NULL DEFAULT 1
	);`,
	`CREATE TABLE IF NOT EXISTS Models (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		quantization TEXT,
		file_size_mb REAL
	);`,
	`CREATE TABLE IF NOT EXISTS Sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		description TEXT,
		total_models INTEGER NOT NULL,
		total_prompts INTEGER NOT NULL,
		models_completed INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS Results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES Sessions(id),
		model_id INTEGER NOT NULL REFERENCES Models(id),
		prompt_id INTEGER REFERENCES Prompts(id),
		output_text TEXT,
		execution_time_seconds REAL,
		tokens_generated INTEGER,
		tokens_per_second REAL,
		error_message TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_results_session ON Results(session_id, model_id);`,
	`CREATE INDEX IF NOT EXISTS idx_results_model ON Results(model_id);`,
	`CREATE VIEW IF NOT EXISTS ResultsSummary AS ` + summarySelect,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS Prompts (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		prompt_text TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'General',
		active INTEGER NOT NULL DEFAULT 1
	);`,
	`CREATE TABLE IF NOT EXISTS Models (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		filename TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		quantization TEXT,
		file_size_mb DOUBLE PRECISION
	);`,
	`CREATE TABLE IF NOT EXISTS Sessions (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		description TEXT,
		total_models INTEGER NOT NULL,
		total_prompts INTEGER NOT NULL,
		models_completed INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ
	);`,
	`CREATE TABLE IF NOT EXISTS Results (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES Sessions(id),
		model_id BIGINT NOT NULL REFERENCES Models(id),
		prompt_id BIGINT REFERENCES Prompts(id),
		output_text TEXT,
		execution_time_seconds DOUBLE PRECISION,
		tokens_generated INTEGER,
		tokens_per_second DOUBLE PRECISION,
		error_message TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_results_session ON Results(session_id, model_id);`,
	`CREATE INDEX IF NOT EXISTS idx_results_model ON Results(model_id);`,
	`CREATE OR REPLACE VIEW ResultsSummary AS ` + summarySelect,
}

// summarySelect flattens results for export. Load failures keep their row
// through the LEFT JOIN on Prompts.
const summarySelect = `SELECT
		r.id AS result_id,
		s.id AS session_id,
		s.description AS session_description,
		m.filename AS model_filename,
		m.quantization AS quantization,
		m.file_size_mb AS file_size_mb,
		p.id AS prompt_id,
		p.category AS prompt_category,
		p.prompt_text AS prompt_text,
		r.output_text AS output_text,
		r.execution_time_seconds AS execution_time_seconds,
		r.tokens_generated AS tokens_generated,
		r.tokens_per_second AS tokens_per_second,
		r.error_message AS error_message
	FROM Results r
	JOIN Sessions s ON s.id = r.session_id
	JOIN Models m ON m.id = r.model_id
	LEFT JOIN Prompts p ON p.id = r.prompt_id`

func (s *Store) migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.driver == DriverPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
