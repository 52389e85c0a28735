package market

import "time"

// Asset identifies one of the fixed tracked assets. The set is closed at
// process start; assets are never created or destroyed at runtime.
type Asset string

const (
	Bitcoin  Asset = "bitcoin"
	Ethereum Asset = "ethereum"
)

// Tracked returns the fixed asset set in display order.
func Tracked() []Asset {
	return []Asset{Bitcoin, Ethereum}
}

// Symbol returns the exchange ticker symbol for the asset.
func (a Asset) Symbol() string {
	switch a {
	case Bitcoin:
		return "BTCUSDT"
	case Ethereum:
		return "ETHUSDT"
	}
	return ""
}

// Label returns a short human-readable name.
func (a Asset) Label() string {
	switch a {
	case Bitcoin:
		return "BTC"
	case Ethereum:
		return "ETH"
	}
	return string(a)
}

// AssetForSymbol maps an exchange symbol back to a tracked asset.
func AssetForSymbol(symbol string) (Asset, bool) {
	for _, a := range Tracked() {
		if a.Symbol() == symbol {
			return a, true
		}
	}
	return "", false
}

// AssetForName maps a lowercase asset name (as used in config and CLI
// flags) to a tracked asset.
func AssetForName(name string) (Asset, bool) {
	for _, a := range Tracked() {
		if string(a) == name {
			return a, true
		}
	}
	return "", false
}

// Tick is one push-delivered current-price/24h-change update for one asset.
type Tick struct {
	Asset     Asset
	Price     float64
	Change24h float64
}

// Candle is one historical price sample, ordered oldest to newest within
// a fetched sequence.
type Candle struct {
	OpenTime time.Time
	Close    float64
}

// UpdateEvent is the immutable derived-stats bundle emitted once per
// accepted tick. Change1h/Change4h are nil while the corresponding anchor
// has not been established.
type UpdateEvent struct {
	Asset     Asset
	Price     float64
	Change24h float64
	Change1h  *float64
	Change4h  *float64
}
