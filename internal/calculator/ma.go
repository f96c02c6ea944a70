package calculator

import (
	"errors"

	"GarchSentinel/internal/model"
)

// SMA computes the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// RollingStdDev returns the sample standard deviation of every full window of
// length period, oldest first. The result has len(values)-period+1 entries.
func RollingStdDev(values []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, errors.New("period must be at least 2")
	}
	if len(values) < period {
		return nil, errors.New("not enough data for rolling standard deviation")
	}
	out := make([]float64, 0, len(values)-period+1)
	for end := period; end <= len(values); end++ {
		sd, err := StdDev(values[end-period : end])
		if err != nil {
			return nil, err
		}
		out = append(out, sd)
	}
	return out, nil
}

// Closes extracts the close of each bar.
func Closes(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
