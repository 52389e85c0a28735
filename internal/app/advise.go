package app

import (
	"fmt"
	"os"

	"market-pulse/internal/advisory"
	"market-pulse/internal/market"
)

// AdviseOptions hold parameters for the one-shot advisory command.
type AdviseOptions struct {
	Asset     string
	Price     float64
	Change24h float64
}

// Advise evaluates the advisory text for a supplied price point without
// touching any live data source.
func (a *App) Advise(opts AdviseOptions) error {
	asset, ok := market.AssetForName(opts.Asset)
	if !ok {
		return fmt.Errorf("%q is not a tracked asset", opts.Asset)
	}

	adv, ok := advisory.Evaluate(asset, opts.Price, opts.Change24h)
	if !ok {
		return fmt.Errorf("price must be greater than zero")
	}

	fmt.Fprintf(os.Stdout, "%s\n%s\n", adv.Sentiment, adv.Text)
	return nil
}
