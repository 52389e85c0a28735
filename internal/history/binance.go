package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"market-pulse/internal/market"
)

const klinesPath = "/klines"

// Options parameterise the candle snapshot fetcher.
type Options struct {
	BaseURL   string
	Interval  string
	Limit     int
	Timeout   time.Duration
	UserAgent string
}

// Binance fetches kline snapshots from the exchange REST API.
type Binance struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewBinance constructs a snapshot fetcher.
func NewBinance(opts Options, logger zerolog.Logger) *Binance {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.binance.com/api/v3"
	}
	if opts.Interval == "" {
		opts.Interval = "15m"
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	return &Binance{
		opts:    opts,
		logger:  logger.With().Str("component", "history_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchCandles retrieves the configured window of candles for the asset,
// ordered oldest to newest as delivered by the API.
func (b *Binance) FetchCandles(ctx context.Context, asset market.Asset) ([]market.Candle, error) {
	symbol := asset.Symbol()
	if symbol == "" {
		return nil, fmt.Errorf("asset %q has no exchange symbol", asset)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", b.opts.Interval)
	params.Set("limit", strconv.Itoa(b.opts.Limit))

	endpoint := b.baseURL + klinesPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	// Each row is a heterogeneous array:
	// [open_time, open, high, low, close, volume, ...].
	var rows [][]json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	candles := make([]market.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("kline row %d has %d fields, want at least 5", i, len(row))
		}

		var openMillis int64
		if err := json.Unmarshal(row[0], &openMillis); err != nil {
			return nil, fmt.Errorf("kline row %d: parse open time: %w", i, err)
		}

		var closeStr string
		if err := json.Unmarshal(row[4], &closeStr); err != nil {
			return nil, fmt.Errorf("kline row %d: parse close: %w", i, err)
		}
		closePrice, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("kline row %d: parse close %q: %w", i, closeStr, err)
		}

		candles = append(candles, market.Candle{
			OpenTime: time.UnixMilli(openMillis).UTC(),
			Close:    closePrice,
		})
	}

	b.logger.Debug().Str("symbol", symbol).Int("count", len(candles)).Msg("fetched candle snapshot")
	return candles, nil
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("klines api error (%d): %s", status, apiErr.Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("klines api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("klines api error (%d)", status)
}

var _ Source = (*Binance)(nil)
