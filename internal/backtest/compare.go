package backtest

import (
	"fmt"
	"sort"

	"GarchSentinel/internal/model"
	"GarchSentinel/internal/strategy"
)

// ComparisonResult is one policy's outcome over a shared volatility history.
type ComparisonResult struct {
	Policy       string                   `json:"policy"`
	Thresholds   model.ThresholdPair      `json:"thresholds"`
	Distribution model.SignalDistribution `json:"distribution"`
	Report       model.PerformanceReport  `json:"report"`
}

// Compare classifies the whole series with each policy (thresholds computed
// once over the series) and simulates the resulting signals.
func Compare(series []model.VolatilityObservation, opts Options, policies ...strategy.ThresholdPolicy) ([]ComparisonResult, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrEmptyInput, len(series))
	}
	sorted := make([]model.VolatilityObservation, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	vols := make([]float64, len(sorted))
	for i, o := range sorted {
		vols[i] = o.PredictedVolatility
	}

	results := make([]ComparisonResult, 0, len(policies))
	for _, p := range policies {
		signals, tp, err := strategy.ClassifySeries(vols, p)
		if err != nil {
			return nil, fmt.Errorf("%s policy: %w", p.Name(), err)
		}
		obs := make([]model.Observation, len(sorted))
		for i, o := range sorted {
			obs[i] = model.Observation{Timestamp: o.Timestamp, Price: o.Price, Signal: signals[i]}
		}
		report, err := Simulate(obs, opts)
		if err != nil {
			return nil, fmt.Errorf("%s policy: %w", p.Name(), err)
		}
		results = append(results, ComparisonResult{
			Policy:       p.Name(),
			Thresholds:   tp,
			Distribution: strategy.Distribute(signals),
			Report:       report,
		})
	}
	return results, nil
}

// FromPredictions turns recorded predictions into a comparison series.
func FromPredictions(preds []model.Prediction) []model.VolatilityObservation {
	out := make([]model.VolatilityObservation, len(preds))
	for i, p := range preds {
		out[i] = model.VolatilityObservation{
			Timestamp:           p.Timestamp,
			Price:               p.Price,
			PredictedVolatility: p.PredictedVolatility,
		}
	}
	return out
}
