package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"market-pulse/internal/advisory"
	"market-pulse/internal/chart"
	"market-pulse/internal/config"
	"market-pulse/internal/convert"
	"market-pulse/internal/display"
	"market-pulse/internal/engine"
	"market-pulse/internal/feed"
	"market-pulse/internal/history"
	"market-pulse/internal/market"
	"market-pulse/internal/rates"
	"market-pulse/internal/scheduler"
	"market-pulse/internal/state"
)

// App aggregates configuration and shared dependencies for the CLI
// commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// Run wires the aggregator together and blocks until interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	active, _ := market.AssetForName(a.Config.App.ActiveAsset)
	store := state.NewStore(market.Tracked(), active, a.Config.Rates.Fallback)

	// The exchange rate is consulted once at startup; failure keeps the
	// configured fallback and is not fatal.
	rateClient := rates.NewClient(rates.Options{
		URL:      a.Config.Rates.URL,
		Currency: a.Config.Rates.Currency,
		Timeout:  a.Config.Rates.RequestTimeout,
	}, a.Logger)
	if rate, err := rateClient.FetchRate(ctx); err != nil {
		a.Logger.Warn().Err(err).
			Float64("fallback", a.Config.Rates.Fallback).
			Msg("exchange rate fetch failed; using fallback")
	} else {
		store.SetRate(rate)
	}

	dispatcher := engine.NewDispatcher(a.Logger)
	advisor := advisory.NewGenerator(a.Logger)
	dispatcher.Register(
		display.NewPrinter(os.Stdout, a.Logger),
		convert.New(store, a.holdings(), a.Logger),
		engine.ActiveOnly(store, advisor),
	)

	renderer := chart.NewRenderer(chart.Options{
		OutputDir: a.Config.Chart.OutputDir,
		Width:     a.Config.Chart.Width,
		Height:    a.Config.Chart.Height,
	}, a.Logger)
	if !renderer.Enabled() {
		a.Logger.Info().Msg("chart.output_dir not configured; chart rendering disabled")
	}

	histClient := history.NewBinance(history.Options{
		BaseURL:   a.Config.History.BaseURL,
		Interval:  a.Config.History.Interval,
		Limit:     a.Config.History.Limit,
		Timeout:   a.Config.History.RequestTimeout,
		UserAgent: a.Config.History.UserAgent,
	}, a.Logger)

	ticks := make(chan market.Tick, a.Config.Feed.Buffer)
	snapshots := make(chan engine.Snapshot, len(market.Tracked()))

	refresher := engine.NewRefresher(histClient, market.Tracked(), snapshots, a.Logger)
	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Refresh.Interval,
		RunAtStart:   true,
		StartupDelay: a.Config.Refresh.StartupDelay,
	}, a.Logger)

	eng := engine.New(engine.Options{
		Store:      store,
		Reconciler: engine.NewReconciler(store, dispatcher, a.Logger),
		Charts:     renderer,
		Advisor:    advisor,
		Ticks:      ticks,
		Snapshots:  snapshots,
		Kick:       sched.Kick,
	}, a.Logger)

	pushFeed := feed.NewBinance(feed.Options{
		URL:              a.Config.Feed.URL,
		HandshakeTimeout: a.Config.Feed.HandshakeTimeout,
	}, a.Logger)

	go func() {
		if err := sched.Run(ctx, refresher.Cycle); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Error().Err(err).Msg("refresh scheduler terminated")
		}
	}()

	go func() {
		if err := pushFeed.Stream(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			// Reconnect policy belongs to the transport layer; here the
			// feed simply ends and refresh cycles keep the anchors warm.
			a.Logger.Error().Err(err).Msg("push feed terminated")
		}
	}()

	a.Logger.Info().Str("active_asset", string(store.Active())).Msg("starting market aggregator")
	err := eng.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("engine terminated with error")
		return err
	}

	a.Logger.Info().Msg("market aggregator stopped")
	return nil
}

func (a *App) holdings() map[market.Asset]decimal.Decimal {
	amounts := make(map[market.Asset]decimal.Decimal, len(a.Config.Convert.Amounts))
	for name, amount := range a.Config.Convert.Amounts {
		if asset, ok := market.AssetForName(name); ok {
			amounts[asset] = decimal.NewFromFloat(amount)
		}
	}
	return amounts
}
