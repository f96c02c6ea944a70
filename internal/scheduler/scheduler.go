package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/collector"
	"GarchSentinel/internal/forecast"
	"GarchSentinel/internal/notifier"
	"GarchSentinel/internal/portfolio"
	"GarchSentinel/internal/publisher"
	"GarchSentinel/internal/recorder"
	"GarchSentinel/internal/strategy"
)

// DefaultHistoryLimit bounds how many recorded predictions a replay reads.
const DefaultHistoryLimit = 500

// Deps are the collaborators of a Scheduler. Nil sinks are replaced with no-ops.
type Deps struct {
	Collector  *collector.Collector
	Forecaster forecast.Forecaster
	Classifier *strategy.Classifier
	Ledger     *portfolio.Ledger
	Notifier   *notifier.Multi
	Publisher  publisher.Publisher
	Recorder   recorder.Recorder

	// Policies are compared against each other by Compare.
	Policies          []strategy.ThresholdPolicy
	BacktestOptions   backtest.Options
	ValidationOptions backtest.ValidationOptions
	HistoryLimit      int
}

// Scheduler manages the cron task and the signal cycle.
type Scheduler struct {
	Deps
	Cron *cron.Cron
	Ctx  context.Context

	newID func() string
	mu    sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, deps Deps) *Scheduler {
	if deps.Publisher == nil {
		deps.Publisher = publisher.NoopPublisher{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notifier.NewMulti()
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = DefaultHistoryLimit
	}
	if len(deps.Policies) == 0 {
		deps.Policies = []strategy.ThresholdPolicy{strategy.NewStaticPolicy(), strategy.NewDynamicPolicy()}
	}
	return &Scheduler{
		Deps:  deps,
		Cron:  cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		Ctx:   ctx,
		newID: uuid.NewString,
	}
}

// RegisterAll registers the signal cycle.
func (s *Scheduler) RegisterAll(cycleCron string) error {
	if _, err := s.Cron.AddFunc(cycleCron, s.cycleTask); err != nil {
		return fmt.Errorf("register cycle task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the cycle immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.cycleTask()
}

func (s *Scheduler) cycleTask() {
	ctx, cancel := context.WithTimeout(s.Ctx, 2*time.Minute)
	defer cancel()
	if _, err := s.RunCycle(ctx); err != nil {
		log.Error().Err(err).Msg("signal cycle failed")
	}
}
