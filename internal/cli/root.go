// Package cli wires configuration, logging and the store into the llmbench
// command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llmbench/internal/common/fsutil"
	"llmbench/internal/config"
	"llmbench/internal/llm"
	"llmbench/internal/store"
)

// fnNewAdapter is swapped in tests.
var fnNewAdapter = llm.NewLlamaAdapter

// rootOptions holds persistent flag values and the state resolved from them
// before any subcommand runs.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	dbDriver   string
	dbDSN      string
	modelsDir  string

	cfg config.Config
	log zerolog.Logger
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := buildRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func buildRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "llmbench",
		Short:         "Benchmark local GGUF models against a stored prompt set",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.StringVar(&opts.logLevel, "log-level", envStr("LLMBENCH_LOG_LEVEL", "info"), "Log level: debug|info|warn|error (defaults LLMBENCH_LOG_LEVEL or info)")
	pf.StringVar(&opts.logFormat, "log-format", logFormatAuto, "Log format: auto|console|json")
	pf.StringVar(&opts.dbDriver, "driver", "", "Database driver: sqlite|postgres (overrides config)")
	pf.StringVar(&opts.dbDSN, "db", "", "Database file or DSN (overrides config)")
	pf.StringVar(&opts.modelsDir, "models-dir", "", "Directory scanned for *.gguf files (overrides config)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(stderr, opts.logLevel, opts.logFormat)
		if err != nil {
			return err
		}
		opts.log = l
		return opts.resolveConfig(cmd)
	}

	root.AddCommand(
		newRunCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newSessionsCmd(opts),
		newModelsCmd(opts),
		newPromptsCmd(opts),
	)
	return root
}

// resolveConfig layers defaults, the optional config file and explicit flags.
func (o *rootOptions) resolveConfig(cmd *cobra.Command) error {
	cfg := config.Defaults()
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.DBDriver = o.dbDriver
	}
	if flags.Changed("db") {
		cfg.DBDSN = o.dbDSN
	}
	if flags.Changed("models-dir") {
		cfg.ModelsDir = o.modelsDir
	}
	o.cfg = cfg
	return nil
}

// openStore validates the resolved config and opens the database.
func (o *rootOptions) openStore(ctx context.Context) (*store.Store, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	dsn := o.cfg.DBDSN
	if o.cfg.DBDriver == store.DriverSQLite && isFileDSN(dsn) {
		p, err := fsutil.ExpandHome(dsn)
		if err != nil {
			return nil, err
		}
		if err := fsutil.EnsureParentDir(p); err != nil {
			return nil, err
		}
		dsn = p
	}
	st, err := store.Open(ctx, o.cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	o.log.Debug().Str("driver", st.Driver()).Msg("store opened")
	return st, nil
}

func isFileDSN(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// withStore opens the store for the duration of fn.
func (o *rootOptions) withStore(ctx context.Context, fn func(*store.Store) error) error {
	st, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			o.log.Warn().Err(cerr).Msg("close store")
		}
	}()
	return fn(st)
}
