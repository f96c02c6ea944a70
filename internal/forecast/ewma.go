package forecast

import (
	"context"
	"fmt"
	"math"

	"GarchSentinel/internal/calculator"
	"GarchSentinel/internal/model"
)

const DefaultLambda = 0.94

// EWMAForecaster is the RiskMetrics exponentially weighted variance recursion.
type EWMAForecaster struct {
	Lambda float64
}

func NewEWMAForecaster(lambda float64) *EWMAForecaster {
	if lambda <= 0 || lambda >= 1 {
		lambda = DefaultLambda
	}
	return &EWMAForecaster{Lambda: lambda}
}

func (f *EWMAForecaster) Name() string { return "ewma" }

// Forecast seeds the variance with the sample variance and folds every return
// in: var = lambda*var + (1-lambda)*r^2.
func (f *EWMAForecaster) Forecast(_ context.Context, returns []float64) (model.Forecast, error) {
	sd, err := calculator.StdDev(returns)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("%w: %v", ErrTooFewReturns, err)
	}
	variance := sd * sd
	for _, r := range returns {
		variance = f.Lambda*variance + (1-f.Lambda)*r*r
	}
	return model.Forecast{
		Volatility: math.Sqrt(variance),
		Model:      f.Name(),
		Params:     map[string]float64{"lambda": f.Lambda},
	}, nil
}
