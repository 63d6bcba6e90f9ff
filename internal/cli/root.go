// Package cli implements the wst command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/bradstire/wst-reader/internal/adapters/llm"
	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/enforcer"
	"github.com/bradstire/wst-reader/internal/ports"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Tuning  string

	newNarrator narratorFactory
}

type narratorFactory func(config.Config, *slog.Logger) (ports.Narrator, error)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wst CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(llm.NewNarrator)
}

func newRootCommand(newNarrator narratorFactory) *cobra.Command {
	opts := &RootOptions{newNarrator: newNarrator}

	cmd := &cobra.Command{
		Use:   "wst",
		Short: "White Soul Tarot reading tools",
		Long: `Draw spreads, guard chapters against early card reveals, enforce the
reading style, and generate complete readings from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Tuning, "tuning", "", "YAML tuning file for the enforcer (defaults to $TUNING_FILE)")

	cmd.AddCommand(NewDrawCommand(opts))
	cmd.AddCommand(NewGuardCommand(opts))
	cmd.AddCommand(NewEnforceCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger writes to w at debug level when verbose and warn level otherwise.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadEnforcer loads --tuning, falling back to the path in the environment.
func (o *RootOptions) loadEnforcer(cfg config.Config) (*enforcer.Enforcer, error) {
	path := o.Tuning
	if path == "" {
		path = cfg.TuningFile
	}
	t, err := config.LoadTuning(path)
	if err != nil {
		return nil, err
	}
	return enforcer.New(t)
}
