package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"llmbench/internal/bench"
	"llmbench/internal/export"
	"llmbench/internal/gguf"
	"llmbench/internal/promptfile"
	"llmbench/internal/registry"
	"llmbench/internal/session"
	"llmbench/internal/store"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "import <file>",
		Short:   "Import prompts, one per line as \"Category | text\" or plain text",
		Example: "  llmbench import prompts.txt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := promptfile.ParseFile(args[0])
			if err != nil {
				return err
			}
			return opts.withStore(cmd.Context(), func(st *store.Store) error {
				n, err := st.InsertPrompts(cmd.Context(), ps)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d prompts from %s.\n", n, args[0])
				return nil
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		output    string
		sessionID int64
	)
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the results summary as CSV",
		Example: "  llmbench export -o results.csv\n  llmbench export --session 3 -o -",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(st *store.Store) error {
				rows, err := st.Summary(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				if output == "-" {
					return export.WriteCSV(cmd.OutOrStdout(), rows)
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := export.WriteCSV(f, rows); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(rows), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "benchmark_results.csv", "Output file, or - for stdout")
	cmd.Flags().Int64Var(&sessionID, "session", 0, "Only export this session (0 = all)")
	return cmd
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	var (
		incomplete bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List benchmark sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(st *store.Store) error {
				var (
					ss  []store.Session
					err error
				)
				if incomplete {
					ss, err = session.NewTracker(st, opts.log).Incomplete(cmd.Context())
				} else {
					ss, err = st.Sessions(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				return printSessions(cmd.OutOrStdout(), ss)
			})
		},
	}
	cmd.Flags().BoolVar(&incomplete, "incomplete", false, "Only sessions left running by an interrupted run")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list (0 = all)")
	return cmd
}

func printSessions(w io.Writer, ss []store.Session) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tMODELS\tPROMPTS\tSTARTED\tENDED\tDESCRIPTION")
	for _, s := range ss {
		v := bench.SessionView(s)
		ended := "-"
		if s.EndTime != nil {
			ended = s.EndTime.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%d\t%s\t%s\t%s\n", v.ID, v.Status, v.ModelsCompleted, v.TotalModels,
			v.TotalPrompts, s.StartTime.Local().Format(time.DateTime), ended, v.Description)
	}
	return tw.Flush()
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var inspect bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List registered models, or inspect GGUF headers in the models dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspect {
				return inspectModels(cmd.OutOrStdout(), opts.cfg.ModelsDir)
			}
			return opts.withStore(cmd.Context(), func(st *store.Store) error {
				ms, err := st.Models(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tFILENAME\tQUANT\tSIZE_MB")
				for _, m := range ms {
					q := "-"
					if m.Quantization != nil {
						q = *m.Quantization
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\n", m.ID, m.Filename, q, m.FileSizeMB)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&inspect, "inspect", false, "Read GGUF metadata of files in --models-dir instead of the database")
	return cmd
}

func inspectModels(w io.Writer, dir string) error {
	cands, err := registry.Discover(dir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tARCH\tNAME\tQUANT\tGUESS\tERROR")
	for _, c := range cands {
		md, err := gguf.ReadFile(c.Path)
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\t%v\n", c.Filename, registry.GuessQuantization(c.Filename), err)
			continue
		}
		q := md.Quantization()
		if q == "" {
			q = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", c.Filename, orDash(md.Architecture), orDash(md.Name), q,
			registry.GuessQuantization(c.Filename))
	}
	return tw.Flush()
}

func newPromptsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List or toggle benchmark prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(st *store.Store) error {
				ps, err := st.ActivePrompts(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCATEGORY\tPROMPT")
				for _, p := range ps {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Category, truncate(p.Text, 60))
				}
				return tw.Flush()
			})
		},
	}
	toggle := func(use, short string, active bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid prompt id %q", args[0])
				}
				return opts.withStore(cmd.Context(), func(st *store.Store) error {
					if err := st.SetPromptActive(cmd.Context(), id, active); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Prompt %d %sd.\n", id, use)
					return nil
				})
			},
		}
	}
	cmd.AddCommand(
		toggle("enable", "Include a prompt in future runs", true),
		toggle("disable", "Exclude a prompt from future runs", false),
	)
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
