package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"market-pulse/internal/market"
)

// Printer renders one stat line per accepted tick: current price plus
// the 1h/4h/24h changes, with "--" for horizons whose anchor is not yet
// established.
type Printer struct {
	out    io.Writer
	logger zerolog.Logger
}

// NewPrinter constructs a display consumer writing to out.
func NewPrinter(out io.Writer, logger zerolog.Logger) *Printer {
	return &Printer{
		out:    out,
		logger: logger.With().Str("component", "display").Logger(),
	}
}

// Name implements engine.Consumer.
func (p *Printer) Name() string {
	return "display"
}

// OnUpdate implements engine.Consumer.
func (p *Printer) OnUpdate(ev market.UpdateEvent) {
	line := fmt.Sprintf(
		"%s  $%s  1h %s  4h %s  24h %s",
		ev.Asset.Label(),
		FormatPrice(ev.Price),
		FormatChange(ev.Change1h),
		FormatChange(ev.Change4h),
		FormatChange(&ev.Change24h),
	)
	if _, err := fmt.Fprintln(p.out, line); err != nil {
		p.logger.Warn().Err(err).Msg("display write failed")
	}
}

// FormatPrice renders a price with thousands separators and two decimal
// places, e.g. 64250.5 -> "64,250.50".
func FormatPrice(price float64) string {
	s := fmt.Sprintf("%.2f", price)

	intPart, fracPart, _ := strings.Cut(s, ".")
	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	grouped := b.String() + "." + fracPart
	if negative {
		return "-" + grouped
	}
	return grouped
}

// FormatChange renders a signed percent change, or "--" when the value
// is unavailable.
func FormatChange(change *float64) string {
	if change == nil {
		return "--"
	}
	if *change > 0 {
		return fmt.Sprintf("+%.2f%%", *change)
	}
	return fmt.Sprintf("%.2f%%", *change)
}
