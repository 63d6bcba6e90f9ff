package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/enforcer"
)

// ReadingResult is the data payload of the read command.
type ReadingResult struct {
	ID         string             `json:"id"`
	Sign       domain.Sign        `json:"sign"`
	DateAnchor string             `json:"date_anchor"`
	Cards      []domain.DrawnCard `json:"cards"`
	Clarifiers []domain.DrawnCard `json:"clarifiers"`
	Chapters   []ChapterResult    `json:"chapters"`
	Text       string             `json:"text"`
	Metrics    enforcer.Metrics   `json:"metrics"`
	LatencyMS  int64              `json:"latency_ms"`
}

type ChapterResult struct {
	Number     int      `json:"number"`
	Model      string   `json:"model,omitempty"`
	Violations []string `json:"violations"`
}

type readOptions struct {
	sign string
	seed uint64
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &readOptions{}
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Generate a complete six-chapter reading",
		Long: `Draw a spread, narrate six chapters with the configured LLM provider,
guard every chapter and enforce the style of the stitched reading.

The provider and its API key come from the environment (LLM_PROVIDER,
OPENROUTER_API_KEY or ANTHROPIC_API_KEY).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.sign, "sign", "s", "", "zodiac sign of the reading (required)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for a reproducible draw (0 draws at random)")
	_ = cmd.MarkFlagRequired("sign")

	return cmd
}

func runRead(rootOpts *RootOptions, opts *readOptions, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	if _, ok := domain.ParseSign(opts.sign); !ok {
		return f.Fail(ExitCommandError, "invalid --sign", fmt.Errorf("%w: %q", domain.ErrUnknownSign, opts.sign))
	}
	cfg, err := config.Load()
	if err != nil {
		return f.Fail(ExitCommandError, "load config", err)
	}
	narrator, err := rootOpts.newNarrator(cfg, rootOpts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return f.Fail(ExitCommandError, "configure narrator", err)
	}
	svc, err := rootOpts.newService(cmd, cfg, narrator, opts.seed)
	if err != nil {
		return f.Fail(ExitCommandError, "build service", err)
	}

	r, err := svc.Generate(cmd.Context(), opts.sign)
	if err != nil {
		code := ExitFailure
		if errors.Is(err, domain.ErrDeckNotFound) {
			code = ExitCommandError
		}
		return f.Fail(code, "generate reading", err)
	}

	res := ReadingResult{
		ID:         r.ID,
		Sign:       r.Sign,
		DateAnchor: r.DateAnchor,
		Cards:      r.Draw.Spread.Cards,
		Clarifiers: r.Draw.Clarifiers,
		Text:       r.Text,
		Metrics:    r.Metrics,
		LatencyMS:  r.LatencyMS,
	}
	for _, ch := range r.Chapters {
		tags := make([]string, len(ch.Violations))
		for i, v := range ch.Violations {
			tags[i] = v.String()
		}
		res.Chapters = append(res.Chapters, ChapterResult{Number: ch.Number, Model: ch.Model, Violations: tags})
		f.VerboseLog("chapter %d: %d redactions", ch.Number, len(tags))
	}

	return f.Success(res, func(w io.Writer) error {
		return writeText(w, res.Text)
	})
}
