package advisory

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"market-pulse/internal/market"
)

func TestEvaluateSentimentBands(t *testing.T) {
	cases := []struct {
		change float64
		want   string
	}{
		{8.2, "市场情绪极度贪婪"},
		{5.0, "市场情绪乐观"},
		{0.1, "市场情绪乐观"},
		{0.0, "市场情绪谨慎"},
		{-4.9, "市场情绪谨慎"},
		{-5.0, "市场情绪恐慌"},
		{-12.0, "市场情绪恐慌"},
	}
	for _, tc := range cases {
		adv, ok := Evaluate(market.Bitcoin, 64000, tc.change)
		if !ok {
			t.Fatalf("change %v: advice should be produced", tc.change)
		}
		if adv.Sentiment != tc.want {
			t.Fatalf("change %v: sentiment = %q, want %q", tc.change, adv.Sentiment, tc.want)
		}
	}
}

func TestEvaluateSkipsUnknownPrice(t *testing.T) {
	if _, ok := Evaluate(market.Bitcoin, 0, 3); ok {
		t.Fatal("价格未知时不应产生建议")
	}
}

func TestEvaluateNamesAsset(t *testing.T) {
	adv, _ := Evaluate(market.Ethereum, 3000, 7)
	if !strings.Contains(adv.Text, "以太坊") {
		t.Fatalf("强涨建议应点名资产, 实际 %q", adv.Text)
	}
}

func TestGeneratorKeepsLatestAdvice(t *testing.T) {
	g := NewGenerator(zerolog.Nop())

	if _, ok := g.Last(); ok {
		t.Fatal("no advice should exist before the first update")
	}

	g.OnUpdate(market.UpdateEvent{Asset: market.Bitcoin, Price: 64000, Change24h: 6})
	adv, ok := g.Last()
	if !ok || adv.Sentiment != "市场情绪极度贪婪" {
		t.Fatalf("advice = %+v", adv)
	}

	g.Recompute(market.Bitcoin, 64000, -6)
	adv, _ = g.Last()
	if adv.Sentiment != "市场情绪恐慌" {
		t.Fatalf("recompute should replace the advice, got %q", adv.Sentiment)
	}
}
