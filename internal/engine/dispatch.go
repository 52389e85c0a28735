package engine

import (
	"github.com/rs/zerolog"

	"market-pulse/internal/market"
	"market-pulse/internal/state"
)

// Consumer receives update events from the dispatcher. Consumers get a
// value copy of the event and must not reach back into the store.
type Consumer interface {
	Name() string
	OnUpdate(ev market.UpdateEvent)
}

// Dispatcher fans one UpdateEvent out to a fixed, ordered consumer list.
// Each consumer runs synchronously; a panicking consumer is isolated so
// its siblings still observe the event.
type Dispatcher struct {
	consumers []Consumer
	logger    zerolog.Logger
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger.With().Str("component", "dispatcher").Logger()}
}

// Register appends consumers in invocation order. Called during wiring
// only; the list is fixed once dispatching starts.
func (d *Dispatcher) Register(consumers ...Consumer) {
	d.consumers = append(d.consumers, consumers...)
}

// Dispatch delivers the event to every registered consumer in order.
func (d *Dispatcher) Dispatch(ev market.UpdateEvent) {
	for _, c := range d.consumers {
		d.deliver(c, ev)
	}
}

func (d *Dispatcher) deliver(c Consumer, ev market.UpdateEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("consumer", c.Name()).
				Str("asset", string(ev.Asset)).
				Interface("panic", r).
				Msg("consumer failed; continuing with remaining consumers")
		}
	}()
	c.OnUpdate(ev)
}

// activeOnly gates a consumer so it only sees events for the asset that
// is currently selected for the detailed view.
type activeOnly struct {
	store *state.Store
	inner Consumer
}

// ActiveOnly wraps a consumer so it is invoked only when the event's
// asset is the active one.
func ActiveOnly(store *state.Store, inner Consumer) Consumer {
	return &activeOnly{store: store, inner: inner}
}

func (a *activeOnly) Name() string {
	return a.inner.Name()
}

func (a *activeOnly) OnUpdate(ev market.UpdateEvent) {
	if ev.Asset != a.store.Active() {
		return
	}
	a.inner.OnUpdate(ev)
}
