package llm

import (
	"context"
	"fmt"
)

// With loads path, hands the model to fn and releases it on every exit path,
// including a panic inside fn. Load failures are returned wrapped so that
// IsLoadError matches; a Close failure after a successful fn is returned
// wrapped so that IsReleaseError matches.
func With(ctx context.Context, a Adapter, path string, fn func(Handle) error) (err error) {
	h, err := a.Load(ctx, path)
	if err != nil {
		return loadError{path: path, err: err}
	}
	if h == nil {
		return loadError{path: path, err: fmt.Errorf("adapter returned no model")}
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = releaseError{err: cerr}
		}
	}()
	return fn(h)
}

// SafeGenerate calls h.Generate and converts a panic into an error, so a
// misbehaving backend fails only the current prompt.
func SafeGenerate(ctx context.Context, h Handle, prompt string) (g Generation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()
	return h.Generate(ctx, prompt)
}
