package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/domain"
)

// DrawResult is the data payload of the draw command.
type DrawResult struct {
	Cards      []domain.DrawnCard `json:"cards"`
	Clarifiers []domain.DrawnCard `json:"clarifiers"`
}

type drawOptions struct {
	reversal   float64
	clarifiers int
	seed       uint64
}

// NewDrawCommand creates the draw command.
func NewDrawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &drawOptions{}
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw a five-card spread and its clarifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraw(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.reversal, "reversal", -1, "probability that a card is reversed (defaults to $REVERSAL_RATIO)")
	cmd.Flags().IntVar(&opts.clarifiers, "clarifiers", domain.MaxClarifiers, "number of clarifier cards (0-2)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for a reproducible draw (0 draws at random)")

	return cmd
}

func runDraw(rootOpts *RootOptions, opts *drawOptions, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	cfg, err := config.Load()
	if err != nil {
		return f.Fail(ExitCommandError, "load config", err)
	}
	svc, err := rootOpts.newService(cmd, cfg, nil, opts.seed)
	if err != nil {
		return f.Fail(ExitCommandError, "build service", err)
	}

	reversal := opts.reversal
	if !cmd.Flags().Changed("reversal") {
		reversal = cfg.ReversalRatio
	}
	d, err := svc.Draw(cmd.Context(), reversal, opts.clarifiers)
	if err != nil {
		code := ExitFailure
		if errors.Is(err, domain.ErrInvalidReversalProbability) || errors.Is(err, domain.ErrInvalidClarifierCount) {
			code = ExitCommandError
		}
		return f.Fail(code, "draw", err)
	}

	res := DrawResult{Cards: d.Spread.Cards, Clarifiers: d.Clarifiers}
	return f.Success(res, func(w io.Writer) error {
		for _, c := range res.Cards {
			fmt.Fprintf(w, "%d. %s\n", c.Position, c.Title())
		}
		if len(res.Clarifiers) > 0 {
			fmt.Fprintln(w)
			for _, c := range res.Clarifiers {
				fmt.Fprintf(w, "Clarifier: %s\n", c.Title())
			}
		}
		return nil
	})
}
