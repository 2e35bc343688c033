// Package llm wraps the inference engine behind a small load/generate/release
// surface. The in-process llama.cpp backend is compiled with `-tags=llama`;
// default builds get a stub whose Load always fails, so every model is
// recorded as a load failure rather than mocked.
package llm

import (
	"context"
	"runtime"
)

// Adapter loads model weights into memory.
type Adapter interface {
	// Load reads the weights at path. A failed Load leaves nothing to release.
	Load(ctx context.Context, path string) (Handle, error)
}

// Handle is one loaded model. At most one Handle is alive at a time.
type Handle interface {
	// Generate runs a single completion for prompt.
	Generate(ctx context.Context, prompt string) (Generation, error)
	// Quantization reports an authoritative quantization label read from
	// the model's own metadata, or "" when the backend exposes none.
	Quantization() string
	// Close frees the model. It is idempotent.
	Close() error
}

// Generation is the outcome of one completion.
type Generation struct {
	Text   string
	Tokens int
}

// Options are fixed for a whole run; they are never varied per model or
// per prompt.
type Options struct {
	ContextSize int
	MaxTokens   int
	Temperature float32
	GPULayers   int
	Threads     int
	TopP        float32
	TopK        int
	Seed        int
}

// Defaults applied by WithDefaults.
const (
	DefaultContextSize = 2048
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
)

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.ContextSize <= 0 {
		o.ContextSize = DefaultContextSize
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Temperature < 0 {
		o.Temperature = DefaultTemperature
	}
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	if o.GPULayers < 0 {
		o.GPULayers = 0
	}
	return o
}

// LlamaBuilt reports whether the binary carries the real llama.cpp backend.
func LlamaBuilt() bool { return llamaBuilt }
