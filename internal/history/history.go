package history

import (
	"context"

	"market-pulse/internal/market"
)

// Source retrieves an ordered oldest-to-newest candle sequence for one
// asset.
type Source interface {
	FetchCandles(ctx context.Context, asset market.Asset) ([]market.Candle, error)
}
