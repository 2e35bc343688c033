//go:build llama

package llm

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"

	"llmbench/internal/gguf"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

type llamaAdapter struct {
	opts Options
	log  zerolog.Logger
}

// NewLlamaAdapter returns the in-process go-llama.cpp backend.
func NewLlamaAdapter(opts Options, log zerolog.Logger) Adapter {
	return &llamaAdapter{opts: opts.WithDefaults(), log: log.With().Str("component", "llama").Logger()}
}

// llamaHandle owns the loaded model.
type llamaHandle struct {
	model *llama.LLama
	opts  Options
	quant string
}

func (a *llamaAdapter) Load(ctx context.Context, path string) (Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mo := []llama.ModelOption{
		llama.SetContext(a.opts.ContextSize),
	}
	if a.opts.GPULayers > 0 {
		mo = append(mo, llama.SetGPULayers(a.opts.GPULayers))
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	h := &llamaHandle{model: m, opts: a.opts}
	// Header metadata is authoritative but optional; a read failure only
	// means the quantization stays unknown.
	if md, err := gguf.ReadFile(path); err == nil {
		h.quant = md.Quantization()
	} else {
		a.log.Debug().Err(err).Str("path", path).Msg("gguf metadata unavailable")
	}
	return h, nil
}

func (h *llamaHandle) Generate(ctx context.Context, prompt string) (Generation, error) {
	if h.model == nil {
		return Generation{}, errors.New("llama model not initialized")
	}
	tokens := 0
	h.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		tokens++
		return true
	})
	text, err := h.model.Predict(prompt, predictOptions(h.opts)...)
	if err != nil {
		if ctx.Err() != nil {
			return Generation{}, ctx.Err()
		}
		return Generation{}, err
	}
	if ctx.Err() != nil {
		return Generation{}, ctx.Err()
	}
	return Generation{Text: text, Tokens: tokens}, nil
}

func (h *llamaHandle) Quantization() string { return h.quant }

func (h *llamaHandle) Close() error {
	if h.model != nil {
		h.model.Free()
		h.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts run options into go-llama.cpp predict options.
func predictOptions(o Options) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, o.MaxTokens)),
		llama.SetThreads(max(1, o.Threads)),
		llama.SetTopP(zf(o.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(o.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(o.Temperature),
	}
	if o.Seed != 0 {
		po = append(po, llama.SetSeed(o.Seed))
	}
	return po
}
