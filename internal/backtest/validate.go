package backtest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"GarchSentinel/internal/calculator"
	"GarchSentinel/internal/model"
	"GarchSentinel/internal/strategy"
)

// ErrTooFewPredictions is returned by Validate below MinValidationSamples.
var ErrTooFewPredictions = errors.New("too few predictions to validate")

const (
	MinValidationSamples = 10
	// accuracyWindow is the number of returns behind each realized volatility sample.
	accuracyWindow    = 6
	accuracyTolerance = 0.5
	minCompared       = 5
)

// Names of the reliability checks, in report order.
const (
	CheckBalance  = "balanced_signals"
	CheckCadence  = "cycle_cadence"
	CheckChanges  = "signal_changes"
	CheckAccuracy = "forecast_accuracy"
	CheckVsHodl   = "vs_hodl"
	CheckVolBand  = "volatility_in_band"
)

// Verdicts by score share: 80% and above, 60%, 40%, below.
const (
	VerdictReliable   = "reliable"
	VerdictModerate   = "moderate"
	VerdictWeak       = "weak"
	VerdictUnreliable = "unreliable"
)

// ValidationOptions tunes Validate. Zero values use the defaults.
type ValidationOptions struct {
	Interval       time.Duration // expected cycle cadence, default 5m
	Tolerance      time.Duration // allowed deviation of the mean interval, default 1m
	StaticLow      float64       // default strategy.DefaultStaticLow
	StaticHigh     float64       // default strategy.DefaultStaticHigh
	InitialCapital float64
}

func (o ValidationOptions) normalized() ValidationOptions {
	if o.Interval <= 0 {
		o.Interval = 5 * time.Minute
	}
	if o.Tolerance <= 0 {
		o.Tolerance = time.Minute
	}
	if o.StaticLow == 0 && o.StaticHigh == 0 {
		o.StaticLow, o.StaticHigh = strategy.DefaultStaticLow, strategy.DefaultStaticHigh
	}
	return o
}

// ValidationCheck is one pass/fail reliability test.
type ValidationCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// ValidationReport scores the recorded predictions out of len(Checks).
type ValidationReport struct {
	Count          int                      `json:"count"`
	From           time.Time                `json:"from"`
	To             time.Time                `json:"to"`
	Distribution   model.SignalDistribution `json:"distribution"`
	AvgIntervalMin float64                  `json:"avg_interval_min"`
	MedIntervalMin float64                  `json:"median_interval_min"`
	Compared       int                      `json:"compared"`
	MAE            float64                  `json:"mae"`
	RMSE           float64                  `json:"rmse"`
	AccuracyPct    float64                  `json:"accuracy_pct"`
	VolMean        float64                  `json:"vol_mean"`
	VolStdDev      float64                  `json:"vol_std_dev"`
	Report         model.PerformanceReport  `json:"report"`
	Checks         []ValidationCheck        `json:"checks"`
	Score          int                      `json:"score"`
	ScorePct       float64                  `json:"score_pct"`
	Verdict        string                   `json:"verdict"`
}

// Validate rates how trustworthy the recorded predictions are: signal balance,
// cycle cadence, signal changes, forecast accuracy against realized volatility,
// strategy versus HODL and the mean forecast against the static band. The
// strategy replay always starts long.
func Validate(preds []model.Prediction, opts ValidationOptions) (ValidationReport, error) {
	if len(preds) < MinValidationSamples {
		return ValidationReport{}, fmt.Errorf("%w: got %d, need %d", ErrTooFewPredictions, len(preds), MinValidationSamples)
	}
	opts = opts.normalized()

	sorted := make([]model.Prediction, len(preds))
	copy(sorted, preds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	n := len(sorted)
	signals := make([]model.Signal, n)
	prices := make([]float64, n)
	vols := make([]float64, n)
	for i, p := range sorted {
		signals[i], prices[i], vols[i] = p.Signal, p.Price, p.PredictedVolatility
	}

	r := ValidationReport{
		Count:        n,
		From:         sorted[0].Timestamp,
		To:           sorted[n-1].Timestamp,
		Distribution: strategy.Distribute(signals),
	}

	report, err := Simulate(model.Observations(sorted), Options{InitialCapital: opts.InitialCapital, Start: StartLong})
	if err != nil {
		return ValidationReport{}, fmt.Errorf("replay strategy: %w", err)
	}
	r.Report = report

	intervals := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		intervals = append(intervals, sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Minutes())
	}
	r.AvgIntervalMin, _ = calculator.Mean(intervals)
	r.MedIntervalMin, _ = calculator.Percentile(intervals, 50)

	r.Compared, r.MAE, r.RMSE, r.AccuracyPct = forecastAccuracy(prices, vols)
	r.VolMean, _ = calculator.Mean(vols)
	r.VolStdDev, _ = calculator.StdDev(vols)

	d := r.Distribution
	minInterval := (opts.Interval - opts.Tolerance).Minutes()
	maxInterval := (opts.Interval + opts.Tolerance).Minutes()
	r.Checks = []ValidationCheck{
		{
			Name:   CheckBalance,
			Passed: !(d.BuyPct > 70 || d.SellPct > 70 || d.HoldPct > 80),
			Detail: fmt.Sprintf("BUY %.1f%% SELL %.1f%% HOLD %.1f%%", d.BuyPct, d.SellPct, d.HoldPct),
		},
		{
			Name:   CheckCadence,
			Passed: r.AvgIntervalMin >= minInterval && r.AvgIntervalMin <= maxInterval,
			Detail: fmt.Sprintf("mean interval %.1f min, expected %.0f-%.0f", r.AvgIntervalMin, minInterval, maxInterval),
		},
		{
			Name:   CheckChanges,
			Passed: d.Changes >= 2,
			Detail: fmt.Sprintf("%d changes, %d distinct signals", d.Changes, d.Unique),
		},
		{
			Name:   CheckAccuracy,
			Passed: r.Compared > minCompared && r.AccuracyPct > 40,
			Detail: fmt.Sprintf("%.1f%% within %.1f of realized (MAE %.4f, RMSE %.4f, n=%d)", r.AccuracyPct, accuracyTolerance, r.MAE, r.RMSE, r.Compared),
		},
		{
			Name:   CheckVsHodl,
			Passed: report.ReturnPct >= report.HodlReturnPct-1,
			Detail: fmt.Sprintf("strategy %+.2f%% vs HODL %+.2f%%", report.ReturnPct, report.HodlReturnPct),
		},
		{
			Name:   CheckVolBand,
			Passed: r.VolMean >= opts.StaticLow && r.VolMean <= opts.StaticHigh,
			Detail: fmt.Sprintf("mean volatility %.4f, band [%.2f, %.2f]", r.VolMean, opts.StaticLow, opts.StaticHigh),
		},
	}
	for _, c := range r.Checks {
		if c.Passed {
			r.Score++
		}
	}
	r.ScorePct = float64(r.Score) / float64(len(r.Checks)) * 100
	r.Verdict = verdict(r.ScorePct)
	return r, nil
}

// forecastAccuracy compares each forecast with the realized volatility of the
// following step, measured as the sample deviation of the last accuracyWindow
// percentage returns.
func forecastAccuracy(prices, vols []float64) (compared int, mae, rmse, accuracyPct float64) {
	returns, err := calculator.PctReturns(prices)
	if err != nil {
		return 0, 0, 0, 0
	}
	realized, err := calculator.RollingStdDev(returns, accuracyWindow)
	if err != nil {
		return 0, 0, 0, 0
	}
	// realized[k] ends at price index k+accuracyWindow; the forecast made one step earlier is vols[k+accuracyWindow-1].
	var sumAbs, sumSq float64
	accurate := 0
	for k, rv := range realized {
		e := math.Abs(vols[k+accuracyWindow-1] - rv)
		sumAbs += e
		sumSq += e * e
		if e < accuracyTolerance {
			accurate++
		}
	}
	compared = len(realized)
	if compared == 0 {
		return 0, 0, 0, 0
	}
	c := float64(compared)
	return compared, sumAbs / c, math.Sqrt(sumSq / c), float64(accurate) / c * 100
}

func verdict(scorePct float64) string {
	switch {
	case scorePct >= 80:
		return VerdictReliable
	case scorePct >= 60:
		return VerdictModerate
	case scorePct >= 40:
		return VerdictWeak
	default:
		return VerdictUnreliable
	}
}
