package state

import (
	"errors"

	"market-pulse/internal/market"
)

// ErrInvalidPrice indicates a store write carrying a negative price.
var ErrInvalidPrice = errors.New("state: negative price rejected")

// ErrUnknownAsset indicates an asset outside the tracked set.
var ErrUnknownAsset = errors.New("state: unknown asset")

// AssetState holds the last known market figures for one asset. Zero
// values mean "not yet established": CurrentPrice 0 means no tick has
// arrived, anchor 0 means the horizon has no reference price yet.
// Percent changes over 1h/4h are always derived from the anchors, never
// stored here.
type AssetState struct {
	CurrentPrice float64
	Change24h    float64
	Anchor1h     float64
	Anchor4h     float64
}

// Store owns the per-asset state plus the process-wide selector and
// exchange rate. It has a single logical owner (the engine run loop), so
// no internal locking: producers hand their data to the owner over
// channels rather than writing here concurrently.
type Store struct {
	assets map[market.Asset]*AssetState
	active market.Asset
	rate   float64
}

// NewStore builds a store with all asset fields zeroed.
func NewStore(assets []market.Asset, active market.Asset, fallbackRate float64) *Store {
	states := make(map[market.Asset]*AssetState, len(assets))
	for _, a := range assets {
		states[a] = &AssetState{}
	}
	return &Store{assets: states, active: active, rate: fallbackRate}
}

// Get returns a read-only copy of the asset's state.
func (s *Store) Get(asset market.Asset) AssetState {
	if st, ok := s.assets[asset]; ok {
		return *st
	}
	return AssetState{}
}

// SetCurrent writes the push-delivered price and 24h change.
func (s *Store) SetCurrent(asset market.Asset, price, change24h float64) error {
	st, ok := s.assets[asset]
	if !ok {
		return ErrUnknownAsset
	}
	if price < 0 {
		return ErrInvalidPrice
	}
	st.CurrentPrice = price
	st.Change24h = change24h
	return nil
}

// SetAnchors writes the reference prices derived from a historical
// snapshot. An anchor of 0 leaves that horizon unestablished.
func (s *Store) SetAnchors(asset market.Asset, anchor1h, anchor4h float64) error {
	st, ok := s.assets[asset]
	if !ok {
		return ErrUnknownAsset
	}
	if anchor1h < 0 || anchor4h < 0 {
		return ErrInvalidPrice
	}
	st.Anchor1h = anchor1h
	st.Anchor4h = anchor4h
	return nil
}

// Active returns the asset whose detailed chart/advisory is shown.
func (s *Store) Active() market.Asset {
	return s.active
}

// SetActive switches the detailed view to another tracked asset.
func (s *Store) SetActive(asset market.Asset) error {
	if _, ok := s.assets[asset]; !ok {
		return ErrUnknownAsset
	}
	s.active = asset
	return nil
}

// Rate returns the current USD to local-currency exchange rate.
func (s *Store) Rate() float64 {
	return s.rate
}

// SetRate replaces the exchange rate. Non-positive values are ignored so
// a broken fetch can never wipe out the fallback.
func (s *Store) SetRate(rate float64) {
	if rate > 0 {
		s.rate = rate
	}
}
