package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"llmbench/internal/bench"
	"llmbench/internal/httpapi"
	"llmbench/internal/llm"
	"llmbench/internal/store"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		mode        string
		statusAddr  string
		description string
		gpuLayers   int
		contextSize int
		maxTokens   int
		temperature float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark every discovered model against the active prompts",
		Example: "  llmbench run --models-dir ~/models\n" +
			"  llmbench run --mode new --status-addr :9090",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := bench.ParseMode(mode)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("status-addr") {
				opts.cfg.StatusAddr = statusAddr
			}
			if f.Changed("description") {
				opts.cfg.Description = description
			}
			if f.Changed("gpu-layers") {
				opts.cfg.GPULayers = gpuLayers
			}
			if f.Changed("context-size") {
				opts.cfg.ContextSize = contextSize
			}
			if f.Changed("max-tokens") {
				opts.cfg.MaxTokens = maxTokens
			}
			if f.Changed("temperature") {
				opts.cfg.Temperature = temperature
			}
			return opts.withStore(cmd.Context(), func(st *store.Store) error {
				return runBenchmark(cmd, opts, st, m)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&mode, "mode", string(bench.ModeAll), "Which models to run: all|new")
	f.StringVar(&statusAddr, "status-addr", "", "Serve /status, /sessions and /metrics on this address while running")
	f.StringVar(&description, "description", "", "Session description")
	f.IntVar(&gpuLayers, "gpu-layers", 0, "Layers offloaded to the GPU (0 = CPU only)")
	f.IntVar(&contextSize, "context-size", llm.DefaultContextSize, "Context window in tokens")
	f.IntVar(&maxTokens, "max-tokens", llm.DefaultMaxTokens, "Generation limit per prompt")
	f.Float64Var(&temperature, "temperature", llm.DefaultTemperature, "Sampling temperature")
	return cmd
}

func runBenchmark(cmd *cobra.Command, opts *rootOptions, st *store.Store, mode bench.Mode) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	log := opts.log
	if !llm.LlamaBuilt() {
		log.Warn().Msg("built without llama support; every model will be recorded as a load failure")
	}

	adapter := fnNewAdapter(opts.cfg.LLMOptions(), log)
	orch := bench.New(st, adapter, bench.Config{
		ModelsDir:   opts.cfg.ModelsDir,
		Description: opts.cfg.Description,
		Out:         out,
	}, log)

	stopStatus := startStatusServer(ctx, opts, orch)
	defer stopStatus()

	start := time.Now()
	sum, err := orch.Run(ctx, mode)
	switch {
	case errors.Is(err, bench.ErrNothingNew):
		fmt.Fprintln(out, "Nothing new to benchmark.")
		return nil
	case errors.Is(err, bench.ErrNoPrompts):
		return fmt.Errorf("%w: import some with `llmbench import <file>`", err)
	case errors.Is(err, context.Canceled) && sum.SessionID != 0:
		return fmt.Errorf("interrupted; session %d left running: %w", sum.SessionID, err)
	case err != nil:
		return err
	}
	fmt.Fprintf(out, "Benchmark session %d complete! %d models, %d results (%d failed) in %s.\n",
		sum.SessionID, sum.Models, sum.Results, sum.Failures, time.Since(start).Round(time.Second))
	return nil
}

// startStatusServer serves the status API when an address is configured.
// The returned func stops it and waits for shutdown.
func startStatusServer(ctx context.Context, opts *rootOptions, svc httpapi.Service) func() {
	addr := opts.cfg.StatusAddr
	if addr == "" {
		return func() {}
	}
	httpapi.SetLogger(opts.log)
	httpapi.SetCORSOptions(len(opts.cfg.CORSOrigins) > 0, opts.cfg.CORSOrigins, nil, nil)
	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := httpapi.Serve(sctx, addr, httpapi.NewMux(svc)); err != nil {
			opts.log.Error().Err(err).Str("addr", addr).Msg("status server failed")
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
