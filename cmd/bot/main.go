package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/api"
	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/collector"
	"GarchSentinel/internal/config"
	"GarchSentinel/internal/forecast"
	"GarchSentinel/internal/notifier"
	"GarchSentinel/internal/portfolio"
	"GarchSentinel/internal/publisher"
	"GarchSentinel/internal/recorder"
	"GarchSentinel/internal/scheduler"
	"GarchSentinel/internal/strategy"
	"GarchSentinel/pkg/logger"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "garch-sentinel"}); err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("asset", cfg.Asset).Msg("GarchSentinel starting")

	// Market data
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.Proxy, cfg.DataSource.RequestsPerSecond)
	if err != nil {
		log.Fatal().Err(err).Msg("init fetcher")
	}
	log.Info().Str("fetcher", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, cfg.Asset, collector.Options{
		Interval:   cfg.DataSource.Interval,
		Limit:      cfg.DataSource.Limit,
		MinBars:    cfg.DataSource.MinBars,
		VolPeriod:  cfg.DataSource.VolPeriod,
		WindowSize: cfg.DataSource.WindowSize,
	})

	// Forecasting
	var fc forecast.Forecaster = forecast.NewEWMAForecaster(cfg.Forecast.EWMALambda)
	if cfg.Forecast.ServiceURL != "" {
		fc = &forecast.Fallback{
			Primary:   forecast.NewHTTPForecaster(cfg.Forecast.ServiceURL, cfg.Forecast.Timeout),
			Secondary: fc,
		}
	}
	log.Info().Str("forecaster", fc.Name()).Msg("forecaster ready")

	// Classification
	dynamic := strategy.DynamicPolicy{MinSamples: cfg.Strategy.MinSamples, BufferRatio: cfg.Strategy.BufferRatio}
	static := strategy.StaticPolicy{Low: cfg.Strategy.StaticLow, High: cfg.Strategy.StaticHigh}
	classifier, err := strategy.ClassifierFor(cfg.Strategy.Policy, cfg.Strategy.Fallback, dynamic, static)
	if err != nil {
		log.Fatal().Err(err).Msg("init classifier")
	}

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Warn().Err(err).Msg("create database directory")
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Paper portfolio
	startMode, err := backtest.ParseStartMode(cfg.Portfolio.StartMode)
	if err != nil {
		log.Fatal().Err(err).Msg("portfolio start mode")
	}
	ledger, err := portfolio.NewLedger(cfg.Portfolio.StateFile, cfg.Portfolio.InitialCapital, startMode)
	if err != nil {
		log.Fatal().Err(err).Msg("init paper portfolio")
	}

	// Publisher
	var pub publisher.Publisher = publisher.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := publisher.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Warn().Err(err).Msg("init kafka publisher failed, publishing disabled")
		} else {
			pub = kp
		}
	}
	defer pub.Close()

	// Notifiers
	multi := notifier.NewMulti()
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, cfg.Telegram.APIEndpoint)
		if err != nil {
			log.Warn().Err(err).Msg("init telegram notifier failed")
			tn = nil
		} else {
			multi.Notifiers = append(multi.Notifiers, notifier.Retrying{TelegramNotifier: tn, MaxRetries: cfg.Telegram.MaxRetries})
		}
	}
	if cfg.WhatsApp.BaseURL != "" {
		multi.Notifiers = append(multi.Notifiers,
			notifier.NewWhatsAppNotifier(cfg.WhatsApp.BaseURL, cfg.WhatsApp.APIKey, cfg.WhatsApp.Instance, cfg.WhatsApp.Phone))
	}
	if multi.Empty() {
		log.Warn().Msg("no notification channel configured")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Collector:       col,
		Forecaster:      fc,
		Classifier:      classifier,
		Ledger:          ledger,
		Notifier:        multi,
		Publisher:       pub,
		Recorder:        rec,
		Policies:        []strategy.ThresholdPolicy{static, dynamic},
		BacktestOptions: backtest.Options{InitialCapital: cfg.Portfolio.InitialCapital, Start: startMode},
		ValidationOptions: backtest.ValidationOptions{
			Interval:       cfg.Schedule.ValidationInterval,
			StaticLow:      cfg.Strategy.StaticLow,
			StaticHigh:     cfg.Strategy.StaticHigh,
			InitialCapital: cfg.Portfolio.InitialCapital,
		},
	})
	if err := sched.RegisterAll(cfg.Schedule.CycleCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	var srv *api.Server
	if cfg.HTTP.Enabled {
		srv = api.NewServer(api.NewHandler(sched), cfg.HTTP.Port)
		srv.Start()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing cycle now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.CycleCron).Msg("GarchSentinel is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}
	log.Info().Msg("GarchSentinel stopped")
}
