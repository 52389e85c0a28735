package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"market-pulse/internal/market"
)

// Renderer writes PNG charts of candle closes after each reference
// refresh: a small trend sparkline per asset, plus a detailed chart with
// high/low annotations for the active asset. An empty output dir
// disables rendering entirely.
type Renderer struct {
	dir    string
	width  int
	height int
	logger zerolog.Logger
}

// Options tune chart output.
type Options struct {
	OutputDir string
	Width     int
	Height    int
}

// NewRenderer constructs a chart renderer.
func NewRenderer(opts Options, logger zerolog.Logger) *Renderer {
	width := opts.Width
	if width <= 0 {
		width = 1280
	}
	height := opts.Height
	if height <= 0 {
		height = 720
	}
	return &Renderer{
		dir:    opts.OutputDir,
		width:  width,
		height: height,
		logger: logger.With().Str("component", "chart").Logger(),
	}
}

// Enabled reports whether rendering is configured.
func (r *Renderer) Enabled() bool {
	return r.dir != ""
}

// FeedCandles implements engine.ChartFeeder. Render failures are logged
// and never propagate; a broken renderer must not disturb anything else.
func (r *Renderer) FeedCandles(asset market.Asset, candles []market.Candle, detailed bool) {
	if !r.Enabled() || len(candles) == 0 {
		return
	}

	if err := r.renderMini(asset, candles); err != nil {
		r.logger.Warn().Err(err).Str("asset", string(asset)).Msg("mini chart render failed")
	}
	if detailed {
		if err := r.renderDetail(asset, candles); err != nil {
			r.logger.Warn().Err(err).Str("asset", string(asset)).Msg("detail chart render failed")
		}
	}
}

func (r *Renderer) renderMini(asset market.Asset, candles []market.Candle) error {
	x, y := seriesValues(candles)

	graph := chart.Chart{
		Width:  r.width / 4,
		Height: r.height / 4,
		XAxis:  chart.XAxis{Style: chart.Hidden()},
		YAxis:  chart.YAxis{Style: chart.Hidden()},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    string(asset),
				XValues: x,
				YValues: y,
			},
		},
	}

	return r.writePNG(graph, fmt.Sprintf("%s-mini.png", asset))
}

func (r *Renderer) renderDetail(asset market.Asset, candles []market.Candle) error {
	x, y := seriesValues(candles)
	high, low := extremes(candles)

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  r.width,
		Height: r.height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02 15:04"),
		},
		YAxis: chart.YAxis{
			Name:           "Price (USD)",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    string(asset),
				XValues: x,
				YValues: y,
			},
			chart.AnnotationSeries{
				Annotations: []chart.Value2{
					{XValue: timeValue(high.OpenTime), YValue: high.Close, Label: fmt.Sprintf("High: $%.2f", high.Close)},
					{XValue: timeValue(low.OpenTime), YValue: low.Close, Label: fmt.Sprintf("Low: $%.2f", low.Close)},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return r.writePNG(graph, fmt.Sprintf("%s.png", asset))
}

func (r *Renderer) writePNG(graph chart.Chart, name string) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(r.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return err
	}

	r.logger.Debug().Str("path", path).Msg("chart written")
	return nil
}

// timeValue matches the x-coordinate representation TimeSeries uses for
// its own points, so annotations land on the series.
func timeValue(t time.Time) float64 {
	return float64(t.UnixNano())
}

func seriesValues(candles []market.Candle) ([]time.Time, []float64) {
	x := make([]time.Time, len(candles))
	y := make([]float64, len(candles))
	for i, c := range candles {
		x[i] = c.OpenTime
		y[i] = c.Close
	}
	return x, y
}

// extremes returns the highest and lowest closes in the window.
func extremes(candles []market.Candle) (high, low market.Candle) {
	high, low = candles[0], candles[0]
	for _, c := range candles[1:] {
		if c.Close > high.Close {
			high = c
		}
		if c.Close < low.Close {
			low = c
		}
	}
	return high, low
}
