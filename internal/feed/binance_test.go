package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"market-pulse/internal/market"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestParseTicker(t *testing.T) {
	raw := []byte(`{"e":"24hrTicker","s":"BTCUSDT","c":"64250.50","P":"2.351"}`)

	tick, err := ParseTicker(raw)
	if err != nil {
		t.Fatalf("ParseTicker: %v", err)
	}
	if tick.Asset != market.Bitcoin {
		t.Fatalf("asset = %s, want bitcoin", tick.Asset)
	}
	if tick.Price != 64250.50 {
		t.Fatalf("price = %v, want 64250.50", tick.Price)
	}
	if tick.Change24h != 2.351 {
		t.Fatalf("change24h = %v, want 2.351", tick.Change24h)
	}
}

func TestParseTickerRejectsUntrackedSymbol(t *testing.T) {
	raw := []byte(`{"s":"DOGEUSDT","c":"0.1","P":"5"}`)
	if _, err := ParseTicker(raw); err == nil {
		t.Fatal("未跟踪的符号应报错")
	}
}

func TestParseTickerRejectsMalformedPayload(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"s":"BTCUSDT","c":"abc","P":"1"}`,
		`{"s":"BTCUSDT","c":"1","P":"abc"}`,
	} {
		if _, err := ParseTicker([]byte(raw)); err == nil {
			t.Fatalf("payload %q 应解析失败", raw)
		}
	}
}

func TestBinanceStreamDeliversTicks(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		frames := []string{
			`{"s":"BTCUSDT","c":"64000","P":"1.5"}`,
			`garbage`,
			`{"s":"ETHUSDT","c":"3200","P":"-0.4"}`,
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewBinance(Options{
		URL:              "ws" + strings.TrimPrefix(srv.URL, "http"),
		HandshakeTimeout: time.Second,
	}, noopLogger())

	out := make(chan market.Tick, 4)
	done := make(chan error, 1)
	go func() { done <- client.Stream(ctx, out) }()

	want := []market.Tick{
		{Asset: market.Bitcoin, Price: 64000, Change24h: 1.5},
		{Asset: market.Ethereum, Price: 3200, Change24h: -0.4},
	}
	for _, expected := range want {
		select {
		case tick := <-out:
			if tick != expected {
				t.Fatalf("tick = %+v, want %+v", tick, expected)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

func TestBinanceStreamDialFailure(t *testing.T) {
	client := NewBinance(Options{URL: "ws://127.0.0.1:1", HandshakeTimeout: 200 * time.Millisecond}, noopLogger())

	out := make(chan market.Tick, 1)
	if err := client.Stream(context.Background(), out); err == nil {
		t.Fatal("连接失败应返回错误")
	}
}
