package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"market-pulse/internal/market"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func klineRow(openMillis int64, closePrice string) []any {
	return []any{openMillis, "0", "0", "0", closePrice, "0"}
}

func TestFetchCandlesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("symbol") != "BTCUSDT" {
			t.Errorf("symbol = %q, want BTCUSDT", query.Get("symbol"))
		}
		if query.Get("interval") != "15m" {
			t.Errorf("interval = %q, want 15m", query.Get("interval"))
		}
		if query.Get("limit") != "100" {
			t.Errorf("limit = %q, want 100", query.Get("limit"))
		}

		rows := []any{
			klineRow(1700000000000, "64000.10"),
			klineRow(1700000900000, "64100.25"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	client := NewBinance(Options{BaseURL: srv.URL, Interval: "15m", Limit: 100, Timeout: time.Second}, noopLogger())

	candles, err := client.FetchCandles(context.Background(), market.Bitcoin)
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Close != 64000.10 {
		t.Fatalf("close[0] = %v, want 64000.10", candles[0].Close)
	}
	if !candles[0].OpenTime.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Fatalf("open time mismatch: %v", candles[0].OpenTime)
	}
	if !candles[1].OpenTime.After(candles[0].OpenTime) {
		t.Fatal("candles should stay ordered oldest to newest")
	}
}

func TestFetchCandlesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": -1003, "msg": "Too many requests"})
	}))
	defer srv.Close()

	client := NewBinance(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := client.FetchCandles(context.Background(), market.Bitcoin); err == nil {
		t.Fatal("HTTP 429 应返回错误")
	}
}

func TestFetchCandlesMalformedRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]any{[]any{1700000000000, "0"}})
	}))
	defer srv.Close()

	client := NewBinance(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := client.FetchCandles(context.Background(), market.Bitcoin); err == nil {
		t.Fatal("字段不足的 kline 行应报错")
	}
}

func TestFetchCandlesUnknownAsset(t *testing.T) {
	client := NewBinance(Options{BaseURL: "http://localhost"}, noopLogger())
	if _, err := client.FetchCandles(context.Background(), market.Asset("dogecoin")); err == nil {
		t.Fatal("无符号的资产应报错")
	}
}
