package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/reveal"
)

// GuardResult is the data payload of the guard command.
type GuardResult struct {
	Text       string   `json:"text"`
	Violations []string `json:"violations"`
}

type guardOptions struct {
	cards      []string
	clarifiers []string
	chapter    int
}

// NewGuardCommand creates the guard command.
func NewGuardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &guardOptions{}
	cmd := &cobra.Command{
		Use:   "guard [chapter-file]",
		Short: "Redact cards a chapter names before they are revealed",
		Long: `Guard one chapter of a reading. Spread cards after the chapter's reveal
point are replaced with a neutral placeholder, and clarifiers stay hidden
until the chapter's "Clarifiers:" line. Reads stdin when no file is given.`,
		Example: `  wst guard --chapter 2 --card "The Fool" --card "The Tower, reversed" \
    --card "Death" --card "The Star" --card "The Sun" chapter2.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runGuard(rootOpts, opts, path, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.cards, "card", nil, "spread card in draw order, e.g. \"The Tower, reversed\" (repeatable)")
	cmd.Flags().StringArrayVar(&opts.clarifiers, "clarifier", nil, "clarifier card (repeatable)")
	cmd.Flags().IntVar(&opts.chapter, "chapter", 1, "chapter number (1-6)")

	return cmd
}

func runGuard(rootOpts *RootOptions, opts *guardOptions, path string, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	if opts.chapter < 1 || opts.chapter > domain.ChapterCount {
		return f.Fail(ExitCommandError, "invalid --chapter", fmt.Errorf("%w: got %d", domain.ErrUnknownChapter, opts.chapter))
	}
	spread, err := parseCards(cmd.Context(), opts.cards)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid --card", err)
	}
	clarifiers, err := parseCards(cmd.Context(), opts.clarifiers)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid --clarifier", err)
	}
	text, err := readInput(cmd, path)
	if err != nil {
		return f.Fail(ExitCommandError, "read chapter", err)
	}

	allowed := domain.Spread{Cards: spread}.AllowedAt(opts.chapter)
	f.VerboseLog("chapter %d may name: %v", opts.chapter, allowed)

	res := reveal.Apply(text, spread, allowed, clarifiers)
	out := GuardResult{Text: res.Text, Violations: res.Tags()}
	return f.Success(out, func(w io.Writer) error {
		for _, v := range out.Violations {
			fmt.Fprintf(f.ErrWriter, "violation: %s\n", v)
		}
		return writeText(w, out.Text)
	})
}
