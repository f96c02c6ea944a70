package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/calculator"
	"GarchSentinel/internal/collector"
	"GarchSentinel/internal/config"
	"GarchSentinel/internal/model"
	"GarchSentinel/internal/recorder"
	"GarchSentinel/internal/report"
	"GarchSentinel/internal/strategy"
	"GarchSentinel/pkg/logger"
)

func main() {
	var (
		cfgPath = flag.String("config", "configs/config.yaml", "config file")
		dbPath  = flag.String("db", "", "SQLite history (defaults to database.sqlite_path)")
		live    = flag.Bool("live", false, "use realized volatility of freshly fetched bars instead of recorded predictions")
		limit   = flag.Int("limit", 1000, "maximum number of observations")
		capital = flag.Float64("capital", 0, "initial capital (defaults to portfolio.initial_capital)")
		start   = flag.String("start", "", "start mode: signal, long or flat")
		asJSON  = flag.Bool("json", false, "print JSON instead of tables")
		check   = flag.Bool("validate", false, "score the reliability of the recorded predictions instead of comparing policies")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "garch-compare"}); err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}

	opts := backtest.Options{InitialCapital: cfg.Portfolio.InitialCapital, Start: backtest.StartMode(cfg.Portfolio.StartMode)}
	if *capital > 0 {
		opts.InitialCapital = *capital
	}
	if *start != "" {
		opts.Start = backtest.StartMode(*start)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path := cfg.Database.SQLitePath
	if *dbPath != "" {
		path = *dbPath
	}

	if *check {
		if *live {
			log.Fatal().Msg("-validate needs recorded predictions and cannot be combined with -live")
		}
		preds, err := recordedPredictions(ctx, path, *limit)
		if err != nil {
			log.Fatal().Err(err).Msg("load predictions")
		}
		v, err := backtest.Validate(preds, backtest.ValidationOptions{
			Interval:       cfg.Schedule.ValidationInterval,
			StaticLow:      cfg.Strategy.StaticLow,
			StaticHigh:     cfg.Strategy.StaticHigh,
			InitialCapital: opts.InitialCapital,
		})
		if err != nil {
			log.Fatal().Err(err).Int("predictions", len(preds)).Msg("validate predictions")
		}
		if *asJSON {
			printJSON(v)
			return
		}
		report.PrintValidation(os.Stdout, v)
		return
	}

	var series []model.VolatilityObservation
	if *live {
		series, err = liveSeries(ctx, cfg)
	} else {
		var preds []model.Prediction
		preds, err = recordedPredictions(ctx, path, *limit)
		series = backtest.FromPredictions(preds)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load volatility series")
	}
	if *limit > 0 && len(series) > *limit {
		series = series[len(series)-*limit:]
	}

	static := strategy.StaticPolicy{Low: cfg.Strategy.StaticLow, High: cfg.Strategy.StaticHigh}
	dynamic := strategy.DynamicPolicy{MinSamples: cfg.Strategy.MinSamples, BufferRatio: cfg.Strategy.BufferRatio}
	results, err := backtest.Compare(series, opts, static, dynamic)
	if err != nil {
		log.Fatal().Err(err).Int("observations", len(series)).Msg("compare policies")
	}

	if *asJSON {
		printJSON(results)
		return
	}

	vols := make([]float64, len(series))
	for i, o := range series {
		vols[i] = o.PredictedVolatility
	}
	if summary, err := calculator.Summarize(vols); err == nil {
		report.PrintSummary(os.Stdout, "Volatility", summary)
	}
	report.PrintComparison(os.Stdout, results)
	if best, ok := report.Best(results); ok {
		fmt.Printf("\nBest policy: %s\n", best.Policy)
		report.PrintBacktest(os.Stdout, best.Report)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("encode results")
	}
}

func recordedPredictions(ctx context.Context, path string, limit int) ([]model.Prediction, error) {
	rec, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		return nil, err
	}
	defer rec.Close()

	preds, err := rec.RecentPredictions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	return preds, nil
}

// liveSeries pairs each realized volatility sample with the close of the bar
// that ends its window.
func liveSeries(ctx context.Context, cfg *config.Config) ([]model.VolatilityObservation, error) {
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.Proxy, cfg.DataSource.RequestsPerSecond)
	if err != nil {
		return nil, err
	}
	col := collector.NewCollector(fetcher, cfg.Asset, collector.Options{
		Interval:   cfg.DataSource.Interval,
		Limit:      cfg.DataSource.Limit,
		MinBars:    cfg.DataSource.MinBars,
		VolPeriod:  cfg.DataSource.VolPeriod,
		WindowSize: cfg.DataSource.Limit,
	})
	snap, err := col.Collect(ctx)
	if err != nil {
		return nil, err
	}
	offset := len(snap.Bars) - len(snap.VolWindow)
	series := make([]model.VolatilityObservation, len(snap.VolWindow))
	for i, v := range snap.VolWindow {
		bar := snap.Bars[offset+i]
		series[i] = model.VolatilityObservation{Timestamp: bar.Time, Price: bar.Close, PredictedVolatility: v}
	}
	return series, nil
}
