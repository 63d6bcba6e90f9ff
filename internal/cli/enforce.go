package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/enforcer"
	"github.com/bradstire/wst-reader/internal/textrules"
)

// EnforceResult is one document of the enforce command's payload.
type EnforceResult struct {
	File    string           `json:"file"`
	Output  string           `json:"output,omitempty"`
	Text    string           `json:"text"`
	Metrics enforcer.Metrics `json:"metrics"`
}

type enforceOptions struct {
	sign   string
	outDir string
	jobs   int
}

// NewEnforceCommand creates the enforce command.
func NewEnforceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &enforceOptions{}
	cmd := &cobra.Command{
		Use:   "enforce <file>...",
		Short: "Apply the reading style constraints to finished documents",
		Long: `Enforce repetition caps, punctuation density and rhythm on one or more
documents. Each document is processed on its own, so their phrase rotations
never interfere. Use "-" to read stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnforce(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.sign, "sign", "s", "", "zodiac sign selecting the constraint profile")
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "write each result to this directory instead of stdout")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "documents processed in parallel")

	return cmd
}

func runEnforce(rootOpts *RootOptions, opts *enforceOptions, paths []string, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)
	logger := rootOpts.logger(cmd.ErrOrStderr())

	cfg, err := config.Load()
	if err != nil {
		return f.Fail(ExitCommandError, "load config", err)
	}
	en, err := rootOpts.loadEnforcer(cfg)
	if err != nil {
		return f.Fail(ExitCommandError, "load tuning", err)
	}
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return f.Fail(ExitCommandError, "create output directory", err)
		}
	}

	// stdin is read up front so no goroutine touches it.
	inputs := make([]string, len(paths))
	for i, p := range paths {
		if p != "-" {
			continue
		}
		if inputs[i], err = readInput(cmd, p); err != nil {
			return f.Fail(ExitCommandError, "read input", err)
		}
	}

	results := make([]EnforceResult, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(opts.jobs, 1))
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text := inputs[i]
			if p != "-" {
				b, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				text = string(b)
			}

			res := en.Enforce(text, opts.sign, textrules.NewCursor())
			results[i] = EnforceResult{File: p, Text: res.Text, Metrics: res.Metrics}
			res.LogBreaches(ctx, logger.With("file", p))

			if opts.outDir == "" {
				return nil
			}
			out := filepath.Join(opts.outDir, outputName(p, i))
			results[i].Output = out
			return os.WriteFile(out, []byte(res.Text), 0o644)
		})
	}
	if err := g.Wait(); err != nil {
		return f.Fail(ExitCommandError, "enforce", err)
	}

	for _, r := range results {
		m := r.Metrics
		f.VerboseLog("%s: words %d, tracked word %d→%d, tracked phrase %d→%d, passes %v",
			r.File, m.After.Words, m.Before.TrackedWord, m.After.TrackedWord,
			m.Before.TrackedPhrase, m.After.TrackedPhrase, m.Applied)
	}

	return f.Success(results, func(w io.Writer) error {
		for i, r := range results {
			if r.Output != "" {
				fmt.Fprintf(w, "%s -> %s\n", r.File, r.Output)
				continue
			}
			if len(results) > 1 {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "==> %s <==\n", r.File)
			}
			if err := writeText(w, r.Text); err != nil {
				return err
			}
		}
		return nil
	})
}

func outputName(path string, i int) string {
	if path == "-" {
		return fmt.Sprintf("stdin-%d.txt", i)
	}
	return filepath.Base(path)
}
