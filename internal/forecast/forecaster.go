package forecast

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/model"
)

// ErrTooFewReturns is returned when a forecaster cannot fit the given series.
var ErrTooFewReturns = errors.New("too few returns to forecast")

// Forecaster produces a one-step-ahead volatility forecast from percentage returns.
type Forecaster interface {
	Name() string
	Forecast(ctx context.Context, returns []float64) (model.Forecast, error)
}

// Fallback tries Primary and, when it fails, Secondary.
type Fallback struct {
	Primary   Forecaster
	Secondary Forecaster
}

func (f *Fallback) Name() string { return f.Primary.Name() }

func (f *Fallback) Forecast(ctx context.Context, returns []float64) (model.Forecast, error) {
	fc, err := f.Primary.Forecast(ctx, returns)
	if err == nil {
		return fc, nil
	}
	if ctx.Err() != nil {
		return model.Forecast{}, err
	}
	log.Warn().Err(err).
		Str("primary", f.Primary.Name()).
		Str("secondary", f.Secondary.Name()).
		Msg("forecast failed, using secondary forecaster")
	return f.Secondary.Forecast(ctx, returns)
}
