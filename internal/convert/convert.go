package convert

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"market-pulse/internal/market"
	"market-pulse/internal/state"
)

// Result is the converted value of the configured holdings for one
// asset at the last observed price.
type Result struct {
	USD decimal.Decimal
	CNY decimal.Decimal
}

// Converter recomputes the fiat value of configured holdings on every
// update event, using the process-wide exchange rate for the local
// currency leg.
type Converter struct {
	store   *state.Store
	amounts map[market.Asset]decimal.Decimal
	results map[market.Asset]Result
	logger  zerolog.Logger
}

// New constructs a conversion consumer. amounts maps each asset to the
// held quantity; assets without an entry convert a zero amount.
func New(store *state.Store, amounts map[market.Asset]decimal.Decimal, logger zerolog.Logger) *Converter {
	held := make(map[market.Asset]decimal.Decimal, len(amounts))
	for asset, amount := range amounts {
		held[asset] = amount
	}
	return &Converter{
		store:   store,
		amounts: held,
		results: make(map[market.Asset]Result),
		logger:  logger.With().Str("component", "converter").Logger(),
	}
}

// Name implements engine.Consumer.
func (c *Converter) Name() string {
	return "converter"
}

// OnUpdate implements engine.Consumer. A zero price means no data yet
// and leaves the previous result untouched.
func (c *Converter) OnUpdate(ev market.UpdateEvent) {
	if ev.Price <= 0 {
		return
	}

	result := Convert(c.amounts[ev.Asset], ev.Price, c.store.Rate())
	c.results[ev.Asset] = result

	c.logger.Debug().
		Str("asset", string(ev.Asset)).
		Str("usd", result.USD.StringFixed(2)).
		Str("cny", result.CNY.StringFixed(2)).
		Msg("conversion updated")
}

// Last returns the most recent conversion for the asset.
func (c *Converter) Last(asset market.Asset) (Result, bool) {
	result, ok := c.results[asset]
	return result, ok
}

// Convert values an amount of an asset in USD and the local currency.
func Convert(amount decimal.Decimal, priceUSD, rate float64) Result {
	usd := amount.Mul(decimal.NewFromFloat(priceUSD))
	cny := usd.Mul(decimal.NewFromFloat(rate))
	return Result{USD: usd, CNY: cny}
}
