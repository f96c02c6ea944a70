package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/calculator"
	"GarchSentinel/internal/metrics"
	"GarchSentinel/internal/model"
	"GarchSentinel/internal/notifier"
	"GarchSentinel/internal/recorder"
)

// CycleResult describes one completed signal cycle.
type CycleResult struct {
	Prediction model.Prediction  `json:"prediction"`
	Previous   *model.Prediction `json:"previous,omitempty"`
	Notified   bool              `json:"notified"`
	FellBack   bool              `json:"fell_back"`
	Trade      *model.TradeEvent `json:"trade,omitempty"`
	// RecentVolatility is the mean of the last day of the volatility window.
	RecentVolatility float64 `json:"recent_volatility,omitempty"`
	// RangePosition places the forecast within the window's min/max range (0..1).
	RangePosition float64 `json:"range_position,omitempty"`
}

const recentSamples = 24

// RunCycle fetches data, forecasts, classifies, records, applies the signal to
// the paper ledger, publishes, and notifies when the signal changed. Cycles
// never overlap.
func (s *Scheduler) RunCycle(ctx context.Context) (*CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res, err := s.runCycle(ctx)
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	metrics.CyclesTotal.WithLabelValues(metrics.Result(err)).Inc()
	return res, err
}

func (s *Scheduler) runCycle(ctx context.Context) (*CycleResult, error) {
	snap, err := s.Collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	fc, err := s.Forecaster.Forecast(ctx, snap.Returns)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	decision, err := s.Classifier.ClassifyWithFallback(fc.Volatility, snap.VolWindow)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if decision.FellBack {
		metrics.PolicyFallbacksTotal.Inc()
	}

	prev, err := s.Recorder.LastPrediction(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("read last prediction failed, treating as first")
		prev = nil
	}

	pred := model.Prediction{
		ID:                  s.newID(),
		Timestamp:           snap.FetchedAt,
		Asset:               snap.Asset,
		Price:               snap.Price,
		PredictedVolatility: fc.Volatility,
		Signal:              decision.Signal,
		Policy:              decision.Policy,
		ThresholdLow:        decision.Thresholds.Low,
		ThresholdHigh:       decision.Thresholds.High,
		Model:               fc.Model,
		ModelParams:         fc.Params,
	}
	res := &CycleResult{Prediction: pred, Previous: prev, FellBack: decision.FellBack}
	describeWindow(res, snap.VolWindow)

	log.Info().
		Str("asset", pred.Asset).
		Float64("price", pred.Price).
		Float64("volatility", pred.PredictedVolatility).
		Str("signal", string(pred.Signal)).
		Str("policy", pred.Policy).
		Float64("range_position", res.RangePosition).
		Msg("prediction")

	if err := s.Recorder.RecordPrediction(ctx, &pred); err != nil {
		log.Error().Err(err).Str("id", pred.ID).Msg("record prediction failed")
	}
	metrics.PredictionsTotal.WithLabelValues(string(pred.Signal), pred.Policy).Inc()
	metrics.LastVolatility.Set(pred.PredictedVolatility)
	metrics.LastPrice.Set(pred.Price)
	metrics.ThresholdGauge.WithLabelValues("low").Set(pred.ThresholdLow)
	metrics.ThresholdGauge.WithLabelValues("high").Set(pred.ThresholdHigh)

	if s.Ledger != nil {
		trade, err := s.Ledger.Apply(pred.Observation())
		if err != nil {
			log.Error().Err(err).Msg("apply signal to ledger failed")
		} else if trade != nil {
			res.Trade = trade
			log.Info().Str("action", string(trade.Action)).Float64("price", trade.Price).Msg("paper trade")
		}
		metrics.PortfolioValue.Set(s.Ledger.Valuation(pred.Price).FinalValue)
	}

	if err := s.Publisher.Publish(ctx, &pred); err != nil {
		log.Warn().Err(err).Msg("publish prediction failed")
	}

	if ShouldNotify(prev, pred) {
		res.Notified = s.notify(ctx, pred, prev)
	} else {
		log.Debug().Str("signal", string(pred.Signal)).Msg("signal unchanged, skipping notification")
	}
	return res, nil
}

func describeWindow(res *CycleResult, window []float64) {
	if len(window) == 0 {
		return
	}
	n := recentSamples
	if len(window) < n {
		n = len(window)
	}
	if mean, err := calculator.SMA(window, n); err == nil {
		res.RecentVolatility = mean
	}
	high, low, err := calculator.Range(window)
	if err != nil {
		return
	}
	if pos, err := calculator.Position(res.Prediction.PredictedVolatility, high, low); err == nil {
		res.RangePosition = pos
	}
}

// ShouldNotify reports whether the signal differs from the previous recorded one.
// The first prediction always notifies.
func ShouldNotify(prev *model.Prediction, cur model.Prediction) bool {
	return prev == nil || prev.Signal != cur.Signal
}

func (s *Scheduler) notify(ctx context.Context, pred model.Prediction, prev *model.Prediction) bool {
	if s.Notifier.Empty() {
		return false
	}
	var previous model.Signal
	if prev != nil {
		previous = prev.Signal
	}
	delivered := false
	for _, d := range s.Notifier.Broadcast(ctx, notifier.FormatPrediction(&pred, previous)) {
		metrics.NotificationsTotal.WithLabelValues(d.Channel, metrics.Result(d.Err)).Inc()
		evt := &recorder.NotificationEvent{
			Timestamp:    time.Now(),
			PredictionID: pred.ID,
			Channel:      d.Channel,
			Signal:       pred.Signal,
			Delivered:    d.Err == nil,
		}
		if d.Err != nil {
			evt.Error = d.Err.Error()
		} else {
			delivered = true
		}
		if err := s.Recorder.RecordNotification(ctx, evt); err != nil {
			log.Warn().Err(err).Msg("record notification failed")
		}
	}
	return delivered
}

// RecentPredictions returns up to limit recorded predictions, oldest first.
func (s *Scheduler) RecentPredictions(ctx context.Context, limit int) ([]model.Prediction, error) {
	if limit <= 0 {
		limit = s.HistoryLimit
	}
	return s.Recorder.RecentPredictions(ctx, limit)
}

// Backtest replays recorded predictions through the simulator.
func (s *Scheduler) Backtest(ctx context.Context, limit int, opts backtest.Options) (model.PerformanceReport, error) {
	preds, err := s.RecentPredictions(ctx, limit)
	if err != nil {
		return model.PerformanceReport{}, err
	}
	return backtest.Simulate(model.Observations(preds), opts)
}

// Compare evaluates every configured policy over the recorded volatility history.
func (s *Scheduler) Compare(ctx context.Context, limit int) ([]backtest.ComparisonResult, error) {
	preds, err := s.RecentPredictions(ctx, limit)
	if err != nil {
		return nil, err
	}
	return backtest.Compare(backtest.FromPredictions(preds), s.BacktestOptions, s.Policies...)
}

// Validate scores the reliability of the recorded predictions.
func (s *Scheduler) Validate(ctx context.Context, limit int) (backtest.ValidationReport, error) {
	preds, err := s.RecentPredictions(ctx, limit)
	if err != nil {
		return backtest.ValidationReport{}, err
	}
	return backtest.Validate(preds, s.ValidationOptions)
}
