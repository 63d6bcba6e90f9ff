package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bradstire/wst-reader/internal/adapters/decks"
	"github.com/bradstire/wst-reader/internal/adapters/rng"
	"github.com/bradstire/wst-reader/internal/app"
	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/ports"
)

// readInput reads path, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseCards resolves card titles such as "The Tower, reversed" against the
// standard deck. Positions follow argument order.
func parseCards(ctx context.Context, titles []string) ([]domain.DrawnCard, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	deck, err := decks.NewEmbeddedStore().GetDeck(ctx, domain.StandardDeckID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DrawnCard, 0, len(titles))
	for i, title := range titles {
		name := domain.BaseName(title)
		card, ok := findCard(deck, name)
		if !ok {
			return nil, fmt.Errorf("unknown card %q", title)
		}
		o := domain.Upright
		if name != strings.TrimSpace(title) {
			o = domain.Reversed
		}
		out = append(out, domain.DrawnCard{Card: card, Position: i + 1, Orientation: o})
	}
	return out, nil
}

func findCard(deck domain.Deck, name string) (domain.Card, bool) {
	for _, c := range deck.Cards {
		if domain.SameCard(c.Name, name) {
			return c, true
		}
	}
	return domain.Card{}, false
}

// newService wires a ReadingService from the environment. narrator may be
// nil for commands that never narrate.
func (o *RootOptions) newService(cmd *cobra.Command, cfg config.Config, narrator ports.Narrator, seed uint64) (*app.ReadingService, error) {
	en, err := o.loadEnforcer(cfg)
	if err != nil {
		return nil, err
	}
	var r domain.RNG = rng.Std{}
	if seed != 0 {
		r = rng.NewSeeded(seed)
	}
	opts := app.DefaultOptions()
	opts.ReversalRatio = cfg.ReversalRatio
	opts.StripBreaks = cfg.StripBreaks
	return app.NewReadingService(decks.NewEmbeddedStore(), narrator, r, en, o.logger(cmd.ErrOrStderr()), opts), nil
}
