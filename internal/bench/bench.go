// Package bench runs every active prompt against every discovered model,
// one model in memory at a time, and records one row per outcome.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llmbench/internal/llm"
	"llmbench/internal/registry"
	"llmbench/internal/session"
	"llmbench/internal/store"
	"llmbench/pkg/types"
)

// Mode selects which discovered models a run covers.
type Mode string

const (
	ModeAll Mode = "all"
	ModeNew Mode = "new"
)

// ParseMode accepts "all" or "new" (case-insensitive). Empty means all.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeAll):
		return ModeAll, nil
	case string(ModeNew):
		return ModeNew, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want all or new)", s)
	}
}

var (
	ErrStoreNotReady  = errors.New("store not ready")
	ErrNoPrompts      = errors.New("no active prompts")
	ErrNoModels       = errors.New("no models found")
	ErrNothingNew     = errors.New("nothing new to benchmark")
	ErrAlreadyRunning = errors.New("benchmark already running")
)

// DefaultDescription labels sessions opened without an explicit description.
const DefaultDescription = "Benchmark Run"

// loadFailedMsg prefixes the error text of a model-level failure row.
const loadFailedMsg = "failed to load model file"

type Config struct {
	ModelsDir   string
	Description string
	// Out receives human-readable progress lines. Nil discards them.
	Out io.Writer
}

// Summary describes one finished run.
type Summary struct {
	RunID     string
	SessionID int64
	Mode      Mode
	Models    int
	Prompts   int
	Results   int
	Failures  int
	Elapsed   time.Duration
}

type Orchestrator struct {
	st      *store.Store
	reg     *registry.Registry
	tracker *session.Tracker
	adapter llm.Adapter
	cfg     Config
	log     zerolog.Logger
	now     func() time.Time

	runMu    sync.Mutex
	running  bool
	progress progress
}

func New(st *store.Store, adapter llm.Adapter, cfg Config, log zerolog.Logger) *Orchestrator {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if strings.TrimSpace(cfg.Description) == "" {
		cfg.Description = DefaultDescription
	}
	o := &Orchestrator{
		st:      st,
		reg:     registry.New(st, log),
		tracker: session.NewTracker(st, log),
		adapter: adapter,
		cfg:     cfg,
		log:     log.With().Str("component", "bench").Logger(),
		now:     time.Now,
	}
	o.progress.update(func(s *types.StatusResponse) { s.State = StateIdle })
	return o
}

// Run executes one benchmark session. Sentinel errors returned before a
// session is opened leave the store untouched. A store write failure or a
// cancelled ctx stops the run and leaves the session running.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (sum Summary, err error) {
	o.runMu.Lock()
	if o.running {
		o.runMu.Unlock()
		return Summary{}, ErrAlreadyRunning
	}
	o.running = true
	o.runMu.Unlock()
	defer func() {
		o.runMu.Lock()
		o.running = false
		o.runMu.Unlock()
	}()

	if mode == "" {
		mode = ModeAll
	}
	started := o.now()
	sum = Summary{RunID: uuid.NewString(), Mode: mode}
	log := o.log.With().Str("run_id", sum.RunID).Str("mode", string(mode)).Logger()

	o.progress.update(func(s *types.StatusResponse) {
		*s = types.StatusResponse{RunID: sum.RunID, Mode: string(mode), State: StateRunning, StartedUnix: started.Unix()}
	})
	defer func() {
		sum.Elapsed = o.now().Sub(started)
		o.progress.update(func(s *types.StatusResponse) {
			s.CurrentModel, s.CurrentPrompt = "", 0
			if err != nil && !errors.Is(err, ErrNothingNew) {
				s.State, s.Error = StateFailed, err.Error()
				return
			}
			s.State = StateFinished
		})
	}()

	if cerr := o.st.Check(ctx); cerr != nil {
		return sum, fmt.Errorf("%w: %v", ErrStoreNotReady, cerr)
	}
	o.warnIncomplete(ctx, log)

	prompts, err := o.st.ActivePrompts(ctx)
	if err != nil {
		return sum, fmt.Errorf("load prompts: %w", err)
	}
	if len(prompts) == 0 {
		return sum, ErrNoPrompts
	}

	cands, err := registry.Discover(o.cfg.ModelsDir)
	if err != nil {
		return sum, fmt.Errorf("discover models: %w", err)
	}
	if len(cands) == 0 {
		return sum, fmt.Errorf("%w in %s", ErrNoModels, o.cfg.ModelsDir)
	}
	if mode == ModeNew {
		seen, err := o.st.BenchmarkedFilenames(ctx)
		if err != nil {
			return sum, fmt.Errorf("load benchmarked models: %w", err)
		}
		cands = registry.ExcludeFilenames(cands, seen)
		if len(cands) == 0 {
			return sum, ErrNothingNew
		}
	}

	sum.Models, sum.Prompts = len(cands), len(prompts)
	sid, err := o.tracker.Open(ctx, o.cfg.Description, len(cands), len(prompts))
	if err != nil {
		return sum, fmt.Errorf("open session: %w", err)
	}
	sum.SessionID = sid
	log = log.With().Int64("session_id", sid).Logger()
	modelsCompletedGauge.Set(0)
	o.progress.update(func(s *types.StatusResponse) {
		s.SessionID, s.TotalModels, s.TotalPrompts = sid, len(cands), len(prompts)
	})
	o.printf("Session %d started. Found %d models and %d prompts.\n", sid, len(cands), len(prompts))

	for i, c := range cands {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		o.printf("[%d/%d] Processing %s...\n", i+1, len(cands), c.Filename)
		o.progress.update(func(s *types.StatusResponse) { s.CurrentModel, s.CurrentPrompt = c.Filename, 0 })

		if err := o.runModel(ctx, log, &sum, c, prompts); err != nil {
			return sum, err
		}
		if err := o.tracker.Advance(ctx, sid); err != nil {
			return sum, fmt.Errorf("advance session: %w", err)
		}
		modelsCompletedGauge.Inc()
		o.progress.update(func(s *types.StatusResponse) { s.ModelsCompleted++ })
	}

	if err := o.tracker.Close(ctx, sid, store.StatusCompleted); err != nil {
		return sum, fmt.Errorf("close session: %w", err)
	}
	o.printf("Benchmark session %d complete: %d results, %d failures.\n", sid, sum.Results, sum.Failures)
	log.Info().Int("results", sum.Results).Int("failures", sum.Failures).Msg("run completed")
	return sum, nil
}

// runModel processes one candidate. Only store failures and cancellation are
// returned; load and generation failures become Result rows.
func (o *Orchestrator) runModel(ctx context.Context, log zerolog.Logger, sum *Summary, c registry.Candidate, prompts []store.Prompt) error {
	m, err := o.reg.ResolveOrRegister(ctx, c.Path)
	if err != nil {
		return fmt.Errorf("register model %s: %w", c.Filename, err)
	}
	mlog := log.With().Int64("model_id", m.ID).Str("model", c.Filename).Logger()

	err = llm.With(ctx, o.adapter, c.Path, func(h llm.Handle) error {
		modelLoadsTotal.WithLabelValues(outcomeOK).Inc()
		mlog.Info().Msg("model loaded")
		if m.Quantization == nil {
			label := h.Quantization()
			if label == "" {
				label = registry.Unknown
			}
			if _, err := o.reg.BackfillQuantization(ctx, m.ID, label); err != nil {
				return fmt.Errorf("backfill quantization: %w", err)
			}
		}
		for i, p := range prompts {
			if err := ctx.Err(); err != nil {
				return err
			}
			o.progress.update(func(s *types.StatusResponse) { s.CurrentPrompt = i + 1 })
			o.printf("  Prompt %d/%d...\n", i+1, len(prompts))
			if err := o.runPrompt(ctx, mlog, sum, h, m.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case llm.IsLoadError(err):
		modelLoadsTotal.WithLabelValues(outcomeError).Inc()
		mlog.Error().Err(err).Msg("model load failed")
		o.printf("  %s: %v\n", loadFailedMsg, err)
		msg := loadFailedMsg + ": " + err.Error()
		return o.record(ctx, sum, store.Result{SessionID: sum.SessionID, ModelID: m.ID, Error: &msg})
	case llm.IsReleaseError(err):
		// Results are already committed; a leaked handle is not fatal.
		mlog.Warn().Err(err).Msg("model release failed")
		return nil
	default:
		return err
	}
}

func (o *Orchestrator) runPrompt(ctx context.Context, log zerolog.Logger, sum *Summary, h llm.Handle, modelID int64, p store.Prompt) error {
	pid := p.ID
	start := o.now()
	g, err := llm.SafeGenerate(ctx, h, p.Text)
	elapsed := o.now().Sub(start).Seconds()
	if err != nil {
		log.Warn().Err(err).Int64("prompt_id", pid).Msg("generation failed")
		o.printf("  Error on prompt %d: %v\n", pid, err)
		msg := err.Error()
		return o.record(ctx, sum, store.Result{SessionID: sum.SessionID, ModelID: modelID, PromptID: &pid, Error: &msg})
	}

	text, tokens := g.Text, g.Tokens
	if tokens < 0 {
		tokens = 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	tps := tokensPerSecond(tokens, elapsed)
	generationDuration.Observe(elapsed)
	tokensPerSecondHist.Observe(tps)
	log.Debug().Int64("prompt_id", pid).Int("tokens", tokens).Float64("seconds", elapsed).
		Float64("tps", tps).Msg("prompt done")
	return o.record(ctx, sum, store.Result{
		SessionID:       sum.SessionID,
		ModelID:         modelID,
		PromptID:        &pid,
		OutputText:      &text,
		ExecSeconds:     &elapsed,
		TokensGenerated: &tokens,
		TokensPerSecond: &tps,
	})
}

func (o *Orchestrator) record(ctx context.Context, sum *Summary, r store.Result) error {
	// A finished unit is committed even if the run is being cancelled.
	if _, err := o.st.InsertResult(context.WithoutCancel(ctx), r); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	failed := r.Error != nil
	sum.Results++
	if failed {
		sum.Failures++
		resultsTotal.WithLabelValues(outcomeError).Inc()
	} else {
		resultsTotal.WithLabelValues(outcomeOK).Inc()
	}
	o.progress.update(func(s *types.StatusResponse) {
		s.Results++
		if failed {
			s.Failures++
		}
	})
	return nil
}

func (o *Orchestrator) warnIncomplete(ctx context.Context, log zerolog.Logger) {
	stale, err := o.tracker.Incomplete(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("list incomplete sessions")
		return
	}
	for _, s := range stale {
		log.Warn().Int64("session_id", s.ID).Int("models_completed", s.ModelsCompleted).
			Int("total_models", s.TotalModels).Msg("found incomplete session from an earlier run")
	}
}

func (o *Orchestrator) printf(format string, args ...any) {
	fmt.Fprintf(o.cfg.Out, format, args...)
}

// tokensPerSecond is tokens/seconds, or 0 when no measurable time elapsed.
// The result is always finite and non-negative.
func tokensPerSecond(tokens int, seconds float64) float64 {
	if tokens <= 0 || !(seconds > 0) || math.IsInf(seconds, 0) {
		return 0
	}
	tps := float64(tokens) / seconds
	if math.IsNaN(tps) || math.IsInf(tps, 0) {
		return 0
	}
	return tps
}
