package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"market-pulse/internal/market"
)

// Options parameterise the Binance push-feed client.
type Options struct {
	URL              string
	HandshakeTimeout time.Duration
}

// Binance consumes the combined 24h ticker stream and converts raw
// messages into normalized ticks. Reconnection policy is deliberately
// not handled here; a closed connection ends the stream.
type Binance struct {
	opts   Options
	logger zerolog.Logger
}

// NewBinance constructs the push-feed client.
func NewBinance(opts Options, logger zerolog.Logger) *Binance {
	return &Binance{
		opts:   opts,
		logger: logger.With().Str("component", "push_feed").Logger(),
	}
}

// Stream dials the ticker stream and forwards parsed ticks to out until
// ctx is cancelled or the connection drops. Messages for symbols outside
// the tracked set and unparseable frames are skipped with a log line.
func (b *Binance) Stream(ctx context.Context, out chan<- market.Tick) error {
	dialer := websocket.Dialer{HandshakeTimeout: b.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, b.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dial push feed: %w", err)
	}
	defer conn.Close()

	b.logger.Info().Str("url", b.opts.URL).Msg("push feed connected")

	// Unblock ReadMessage when the context ends.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read push feed: %w", err)
		}

		tick, err := ParseTicker(raw)
		if err != nil {
			b.logger.Warn().Err(err).Msg("skipping unparseable ticker message")
			continue
		}

		select {
		case out <- tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// tickerMessage mirrors the fields of the exchange 24h ticker payload
// this client cares about.
type tickerMessage struct {
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	ChangePct string `json:"P"`
}

// ParseTicker converts one raw ticker frame into a normalized tick.
func ParseTicker(raw []byte) (market.Tick, error) {
	var msg tickerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return market.Tick{}, fmt.Errorf("decode ticker: %w", err)
	}

	asset, ok := market.AssetForSymbol(msg.Symbol)
	if !ok {
		return market.Tick{}, fmt.Errorf("untracked symbol %q", msg.Symbol)
	}

	price, err := strconv.ParseFloat(msg.LastPrice, 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("parse last price %q: %w", msg.LastPrice, err)
	}

	change, err := strconv.ParseFloat(msg.ChangePct, 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("parse change pct %q: %w", msg.ChangePct, err)
	}

	return market.Tick{Asset: asset, Price: price, Change24h: change}, nil
}

var _ Source = (*Binance)(nil)
