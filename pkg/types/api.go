package types

// StatusResponse is returned by GET /status while a benchmark is running.
type StatusResponse struct {
	// Correlation id of the current process run.
	// example: 5f0c6a4e-8d7b-4a41-9a3c-2f0f0b3c9d11
	RunID string `json:"run_id" example:"5f0c6a4e-8d7b-4a41-9a3c-2f0f0b3c9d11"`
	// Run mode: all or new.
	// example: new
	Mode string `json:"mode" example:"new"`
	// Orchestrator state: idle, running, finished, failed.
	// example: running
	State string `json:"state" example:"running"`
	// Session row backing this run (0 before one is opened).
	// example: 12
	SessionID int64 `json:"session_id" example:"12"`
	// Declared scope of the session.
	// example: 4
	TotalModels int `json:"total_models" example:"4"`
	// example: 20
	TotalPrompts int `json:"total_prompts" example:"20"`
	// Models processed so far, whatever their outcome.
	// example: 2
	ModelsCompleted int `json:"models_completed" example:"2"`
	// Filename of the model currently loaded, if any.
	// example: llama-2-7b.Q4_K_M.gguf
	CurrentModel string `json:"current_model,omitempty" example:"llama-2-7b.Q4_K_M.gguf"`
	// 1-based index of the prompt being generated.
	// example: 3
	CurrentPrompt int `json:"current_prompt,omitempty" example:"3"`
	// Result rows written in this run.
	// example: 43
	Results int `json:"results" example:"43"`
	// Result rows carrying an error message.
	// example: 1
	Failures int `json:"failures" example:"1"`
	// Last error that stopped the run, if any.
	Error string `json:"error,omitempty"`
	// Run start in unix seconds (0 while idle).
	// example: 1700000000
	StartedUnix int64 `json:"started_unix" example:"1700000000"`
	// Server time in unix seconds.
	// example: 1700000100
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000100"`
}

// Session is the JSON view of a stored session row.
type Session struct {
	ID              int64  `json:"id"`
	Description     string `json:"description"`
	TotalModels     int    `json:"total_models"`
	TotalPrompts    int    `json:"total_prompts"`
	ModelsCompleted int    `json:"models_completed"`
	Status          string `json:"status"`
	StartUnix       int64  `json:"start_unix"`
	// Zero while the session has no end time.
	EndUnix int64 `json:"end_unix,omitempty"`
}

// SessionsResponse wraps the list returned by GET /sessions.
type SessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid limit
	Error string `json:"error" example:"invalid limit"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
