// Package engine implements the reference-price reconciliation core: it
// fuses the push tick feed with periodically refreshed candle snapshots
// into one consistent per-asset view and fans derived update events out
// to the registered consumers.
package engine

import (
	"context"

	"github.com/rs/zerolog"

	"market-pulse/internal/market"
	"market-pulse/internal/state"
)

// ChartFeeder receives the fetched candle series after each refresh.
// detailed is true when the series belongs to the active asset.
type ChartFeeder interface {
	FeedCandles(asset market.Asset, candles []market.Candle, detailed bool)
}

// Advisor is recomputed after a refresh of the active asset.
type Advisor interface {
	Recompute(asset market.Asset, price, change24h float64)
}

// Engine owns the store. Its run loop is the single goroutine that ever
// mutates asset state: ticks, snapshots, and selection changes all
// arrive over channels and are applied strictly in sequence, which
// stands in for the original's cooperative single-threaded scheduler.
type Engine struct {
	store      *state.Store
	reconciler *Reconciler
	charts     ChartFeeder
	advisor    Advisor
	kick       func()

	ticks      <-chan market.Tick
	snapshots  <-chan Snapshot
	selections chan market.Asset

	logger zerolog.Logger
}

// Options collect the engine's collaborators. Charts, Advisor and Kick
// may be nil/omitted.
type Options struct {
	Store      *state.Store
	Reconciler *Reconciler
	Charts     ChartFeeder
	Advisor    Advisor
	Ticks      <-chan market.Tick
	Snapshots  <-chan Snapshot
	// Kick is invoked after a selection change to force an immediate
	// refresh cycle instead of waiting out the interval.
	Kick func()
}

// New constructs the engine.
func New(opts Options, logger zerolog.Logger) *Engine {
	return &Engine{
		store:      opts.Store,
		reconciler: opts.Reconciler,
		charts:     opts.Charts,
		advisor:    opts.Advisor,
		kick:       opts.Kick,
		ticks:      opts.Ticks,
		snapshots:  opts.Snapshots,
		selections: make(chan market.Asset, 1),
		logger:     logger.With().Str("component", "engine").Logger(),
	}
}

// Select requests a switch of the active asset. Safe to call from any
// goroutine; the switch is applied by the run loop.
func (e *Engine) Select(asset market.Asset) {
	e.selections <- asset
}

// Run processes events until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick := <-e.ticks:
			e.reconciler.HandleTick(tick)
		case snap := <-e.snapshots:
			e.applySnapshot(snap)
		case asset := <-e.selections:
			e.applySelection(asset)
		}
	}
}

// applySnapshot writes the refreshed anchors and notifies the rendering
// collaborators. A snapshot fetched for a since-deselected asset still
// writes its anchors (the data is valid), but its detailed chart and
// advisory notifications are suppressed.
func (e *Engine) applySnapshot(snap Snapshot) {
	prev := e.store.Get(snap.Asset)
	anchor1h, anchor4h := DeriveAnchors(snap.Candles, prev.Anchor1h, prev.Anchor4h)

	if err := e.store.SetAnchors(snap.Asset, anchor1h, anchor4h); err != nil {
		e.logger.Warn().Err(err).Str("asset", string(snap.Asset)).Msg("store rejected anchors")
		return
	}

	e.logger.Debug().
		Str("asset", string(snap.Asset)).
		Float64("anchor_1h", anchor1h).
		Float64("anchor_4h", anchor4h).
		Int("samples", len(snap.Candles)).
		Msg("anchors refreshed")

	active := e.store.Active() == snap.Asset
	if e.charts != nil {
		e.charts.FeedCandles(snap.Asset, snap.Candles, active)
	}
	if active && e.advisor != nil {
		st := e.store.Get(snap.Asset)
		e.advisor.Recompute(snap.Asset, st.CurrentPrice, st.Change24h)
	}
}

func (e *Engine) applySelection(asset market.Asset) {
	if asset == e.store.Active() {
		return
	}
	if err := e.store.SetActive(asset); err != nil {
		e.logger.Warn().Err(err).Str("asset", string(asset)).Msg("ignoring selection")
		return
	}

	e.logger.Info().Str("asset", string(asset)).Msg("active asset changed")

	if e.advisor != nil {
		st := e.store.Get(asset)
		e.advisor.Recompute(asset, st.CurrentPrice, st.Change24h)
	}
	if e.kick != nil {
		e.kick()
	}
}
