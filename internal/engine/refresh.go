package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"market-pulse/internal/history"
	"market-pulse/internal/market"
)

// Anchor offsets from the most recent candle at the fixed 15-minute
// sampling interval: 4 candles ≈ 1h, 16 candles ≈ 4h. This index
// arithmetic is a deliberate approximation of "exactly N hours ago";
// changing it to a true timestamp lookup would shift the derived stats.
const (
	offset1h = 4
	offset4h = 16
)

// Snapshot carries one asset's fetched candle sequence into the engine
// loop, which applies it to the store.
type Snapshot struct {
	Asset     market.Asset
	Candles   []market.Candle
	FetchedAt time.Time
}

// Refresher fetches candle snapshots for every tracked asset on each
// cycle. Anchors for all assets stay fresh regardless of which one is
// selected; only the detailed rendering is scoped to the active asset.
type Refresher struct {
	source history.Source
	assets []market.Asset
	out    chan<- Snapshot
	logger zerolog.Logger
}

// NewRefresher constructs a refresher feeding snapshots into out.
func NewRefresher(source history.Source, assets []market.Asset, out chan<- Snapshot, logger zerolog.Logger) *Refresher {
	return &Refresher{
		source: source,
		assets: assets,
		out:    out,
		logger: logger.With().Str("component", "refresher").Logger(),
	}
}

// Cycle runs one reference refresh cycle. A failed fetch for one asset
// is logged and skipped; the previous anchors stay in place, which beats
// a missing value.
func (r *Refresher) Cycle(ctx context.Context, at time.Time) error {
	for _, asset := range r.assets {
		candles, err := r.source.FetchCandles(ctx, asset)
		if err != nil {
			r.logger.Warn().Err(err).
				Str("asset", string(asset)).
				Msg("snapshot fetch failed; keeping previous anchors")
			continue
		}

		snap := Snapshot{Asset: asset, Candles: candles, FetchedAt: at}
		select {
		case r.out <- snap:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// DeriveAnchors computes the reference prices from a candle sequence.
// A window too short for a horizon leaves that anchor at its previous
// value rather than deriving it from a partial window.
func DeriveAnchors(candles []market.Candle, prev1h, prev4h float64) (anchor1h, anchor4h float64) {
	anchor1h, anchor4h = prev1h, prev4h
	if n := len(candles); n > offset1h {
		anchor1h = candles[n-1-offset1h].Close
	}
	if n := len(candles); n > offset4h {
		anchor4h = candles[n-1-offset4h].Close
	}
	return anchor1h, anchor4h
}
