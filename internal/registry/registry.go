// Package registry discovers GGUF weight files on disk and maps them to
// stable Model rows, registering each distinct filename exactly once.
package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"llmbench/internal/common/fsutil"
	"llmbench/internal/store"
)

// ModelStore is the subset of the store the registry needs.
type ModelStore interface {
	ModelByFilename(ctx context.Context, filename string) (store.Model, error)
	InsertModel(ctx context.Context, m store.Model) (int64, bool, error)
	SetQuantizationIfNull(ctx context.Context, modelID int64, label string) (bool, error)
}

type Registry struct {
	st  ModelStore
	log zerolog.Logger
}

func New(st ModelStore, log zerolog.Logger) *Registry {
	return &Registry{st: st, log: log.With().Str("component", "registry").Logger()}
}

// ResolveOrRegister returns the Model row for the file at path, inserting it
// on first sight. The stored quantization is returned as-is and may be nil.
// A file that cannot be stat'ed is still registered, with size 0, so the
// load attempt can record the failure against it.
func (r *Registry) ResolveOrRegister(ctx context.Context, path string) (store.Model, error) {
	filename := filepath.Base(path)
	if strings.TrimSpace(filename) == "" || filename == "." || filename == string(filepath.Separator) {
		return store.Model{}, fmt.Errorf("invalid model path %q", path)
	}
	m, err := r.st.ModelByFilename(ctx, filename)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Model{}, err
	}

	size, err := fsutil.SizeMB(path)
	if err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("stat model failed")
		size = 0
	}
	m = store.Model{Filename: filename, Path: path, FileSizeMB: size}
	if q := GuessQuantization(filename); q != Unknown {
		m.Quantization = &q
	}
	id, inserted, err := r.st.InsertModel(ctx, m)
	if err != nil {
		return store.Model{}, err
	}
	if !inserted {
		// Lost a race against another writer; the existing row wins.
		return r.st.ModelByFilename(ctx, filename)
	}
	m.ID = id
	r.log.Debug().Int64("model_id", id).Str("filename", filename).Float64("size_mb", size).
		Str("quant_guess", deref(m.Quantization)).Msg("registered model")
	return m, nil
}

// BackfillQuantization stores label only while the model has none recorded.
// It reports whether a write happened.
func (r *Registry) BackfillQuantization(ctx context.Context, modelID int64, label string) (bool, error) {
	if strings.TrimSpace(label) == "" {
		return false, nil
	}
	ok, err := r.st.SetQuantizationIfNull(ctx, modelID, label)
	if err != nil {
		return false, err
	}
	if ok {
		r.log.Debug().Int64("model_id", modelID).Str("quantization", label).Msg("quantization backfilled")
	}
	return ok, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
