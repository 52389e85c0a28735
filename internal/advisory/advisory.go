package advisory

import (
	"fmt"

	"github.com/rs/zerolog"

	"market-pulse/internal/market"
)

// Advice is the generated sentiment/recommendation pair for one asset.
type Advice struct {
	Asset     market.Asset
	Sentiment string
	Text      string
}

// 24h-change thresholds separating the four sentiment bands.
const (
	greedThreshold = 5.0
	panicThreshold = -5.0
)

// Evaluate maps (price, 24h change) to advisory text. It is a pure
// function; ok is false while the price is still unknown.
func Evaluate(asset market.Asset, price, change24h float64) (Advice, bool) {
	if price <= 0 {
		return Advice{}, false
	}

	name := "比特币"
	if asset == market.Ethereum {
		name = "以太坊"
	}

	adv := Advice{Asset: asset}
	switch {
	case change24h > greedThreshold:
		adv.Sentiment = "市场情绪极度贪婪"
		adv.Text = fmt.Sprintf("当前 %s 涨势强劲（+%.2f%%）。短期内可能面临回调风险，建议分批止盈，切勿盲目追高。", name, change24h)
	case change24h > 0:
		adv.Sentiment = "市场情绪乐观"
		adv.Text = fmt.Sprintf("当前呈现温和上涨趋势（+%.2f%%）。持有者可继续持有，观望者可等待回调时机入场。", change24h)
	case change24h > panicThreshold:
		adv.Sentiment = "市场情绪谨慎"
		adv.Text = fmt.Sprintf("当前处于震荡回调阶段（%.2f%%）。这可能是短期建仓的好机会，建议关注支撑位，定投买入。", change24h)
	default:
		adv.Sentiment = "市场情绪恐慌"
		adv.Text = fmt.Sprintf("当前跌幅较大（%.2f%%），市场恐慌情绪蔓延。切勿恐慌抛售，长期投资者可分批抄底。", change24h)
	}
	return adv, true
}

// Generator keeps the latest advice for the active asset current. It is
// driven two ways: as a fan-out consumer on each accepted tick, and via
// Recompute after a reference refresh or selection change.
type Generator struct {
	logger zerolog.Logger
	last   *Advice
}

// NewGenerator constructs an advisory generator.
func NewGenerator(logger zerolog.Logger) *Generator {
	return &Generator{logger: logger.With().Str("component", "advisory").Logger()}
}

// Name implements engine.Consumer.
func (g *Generator) Name() string {
	return "advisory"
}

// OnUpdate implements engine.Consumer.
func (g *Generator) OnUpdate(ev market.UpdateEvent) {
	g.Recompute(ev.Asset, ev.Price, ev.Change24h)
}

// Recompute implements engine.Advisor.
func (g *Generator) Recompute(asset market.Asset, price, change24h float64) {
	adv, ok := Evaluate(asset, price, change24h)
	if !ok {
		return
	}

	changed := g.last == nil || g.last.Asset != adv.Asset || g.last.Sentiment != adv.Sentiment
	g.last = &adv

	if changed {
		g.logger.Info().
			Str("asset", string(adv.Asset)).
			Str("sentiment", adv.Sentiment).
			Msg(adv.Text)
	}
}

// Last returns the most recent advice, if any has been generated.
func (g *Generator) Last() (Advice, bool) {
	if g.last == nil {
		return Advice{}, false
	}
	return *g.last, true
}
