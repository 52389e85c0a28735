package feed

import (
	"context"

	"market-pulse/internal/market"
)

// Source delivers push ticks until the context is cancelled or the
// underlying transport fails. Implementations close nothing: the out
// channel belongs to the caller.
type Source interface {
	Stream(ctx context.Context, out chan<- market.Tick) error
}
