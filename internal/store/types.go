package store

import "time"

// Session statuses. A session that never reaches StatusCompleted was
// interrupted and keeps a NULL end_time.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

type Prompt struct {
	ID       int64
	Text     string
	Category string
	Active   bool
}

// Model is a registered weight file. Quantization is nil until it has been
// guessed from the filename or backfilled after a load.
type Model struct {
	ID           int64
	Filename     string
	Path         string
	Quantization *string
	FileSizeMB   float64
}

type Session struct {
	ID              int64
	Description     string
	TotalModels     int
	TotalPrompts    int
	ModelsCompleted int
	Status          string
	StartTime       time.Time
	EndTime         *time.Time
}

// Result is one recorded outcome. PromptID is nil for a model load failure;
// Error is non-nil exactly when the unit failed.
type Result struct {
	ID              int64
	SessionID       int64
	ModelID         int64
	PromptID        *int64
	OutputText      *string
	ExecSeconds     *float64
	TokensGenerated *int
	TokensPerSecond *float64
	Error           *string
}

// SummaryRow is one row of the ResultsSummary view.
type SummaryRow struct {
	ResultID           int64
	SessionID          int64
	SessionDescription string
	ModelFilename      string
	Quantization       string
	FileSizeMB         float64
	PromptID           *int64
	PromptCategory     string
	PromptText         string
	OutputText         string
	ExecSeconds        *float64
	TokensGenerated    *int64
	TokensPerSecond    *float64
	Error              string
}
