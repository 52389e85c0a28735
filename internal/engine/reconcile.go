package engine

import (
	"github.com/rs/zerolog"

	"market-pulse/internal/market"
	"market-pulse/internal/state"
)

// Reconciler folds push ticks into the store and derives the per-horizon
// change figures from the cached anchors, so every tick refreshes the
// 1h/4h stats without re-fetching history.
type Reconciler struct {
	store      *state.Store
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewReconciler constructs a tick reconciler.
func NewReconciler(store *state.Store, dispatcher *Dispatcher, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "reconciler").Logger(),
	}
}

// HandleTick validates and applies one push tick, then emits exactly one
// UpdateEvent. Non-positive prices are discarded without touching state.
func (r *Reconciler) HandleTick(tick market.Tick) {
	if tick.Price <= 0 {
		r.logger.Warn().
			Str("asset", string(tick.Asset)).
			Float64("price", tick.Price).
			Msg("discarding invalid tick")
		return
	}

	if err := r.store.SetCurrent(tick.Asset, tick.Price, tick.Change24h); err != nil {
		r.logger.Warn().Err(err).Str("asset", string(tick.Asset)).Msg("store rejected tick")
		return
	}

	// All store fields the consumers need are read before any consumer
	// runs, so every consumer observes the same snapshot.
	st := r.store.Get(tick.Asset)

	ev := market.UpdateEvent{
		Asset:     tick.Asset,
		Price:     tick.Price,
		Change24h: tick.Change24h,
		Change1h:  horizonChange(tick.Price, st.Anchor1h),
		Change4h:  horizonChange(tick.Price, st.Anchor4h),
	}

	r.dispatcher.Dispatch(ev)
}

// horizonChange returns the percent change of price against the anchor,
// or nil while the anchor is unestablished.
func horizonChange(price, anchor float64) *float64 {
	if anchor <= 0 {
		return nil
	}
	change := (price - anchor) / anchor * 100
	return &change
}
