//go:build !llama

package llm

// No-CGO stub compiled when the 'llama' build tag is not set. Every Load
// fails, which the benchmark records as a per-model load failure.

import (
	"context"

	"github.com/rs/zerolog"
)

const llamaBuilt = false

type llamaAdapter struct {
	opts Options
	log  zerolog.Logger
}

// NewLlamaAdapter returns a stub that refuses to load models.
func NewLlamaAdapter(opts Options, log zerolog.Logger) Adapter {
	return &llamaAdapter{opts: opts.WithDefaults(), log: log}
}

func (a *llamaAdapter) Load(ctx context.Context, path string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
