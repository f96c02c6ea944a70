package strategy

import (
	"errors"
	"fmt"
	"math"

	"GarchSentinel/internal/calculator"
	"GarchSentinel/internal/model"
)

var (
	// ErrInsufficientData is returned when a historical window is too small to
	// derive percentile thresholds from.
	ErrInsufficientData = errors.New("insufficient historical data")
	// ErrInvalidVolatility is returned for NaN, infinite or negative volatility values.
	ErrInvalidVolatility = errors.New("invalid volatility value")
)

const (
	DefaultMinSamples  = 20
	MinSamplesFloor    = 2
	DefaultBufferRatio = 0.1

	DefaultStaticLow  = 1.5
	DefaultStaticHigh = 3.0

	PolicyDynamic = "dynamic"
	PolicyStatic  = "static"
)

// ThresholdPolicy derives the classification bounds from a historical window.
type ThresholdPolicy interface {
	Name() string
	Thresholds(window []float64) (model.ThresholdPair, error)
}

// DynamicPolicy places the thresholds around the interquartile range of the
// window: high = p75 + buffer, low = p25 - buffer, buffer = (p75-p25)*BufferRatio.
type DynamicPolicy struct {
	MinSamples  int     // values below MinSamplesFloor are raised to it
	BufferRatio float64 // zero means DefaultBufferRatio
}

// NewDynamicPolicy returns a DynamicPolicy with default settings.
func NewDynamicPolicy() DynamicPolicy {
	return DynamicPolicy{MinSamples: DefaultMinSamples, BufferRatio: DefaultBufferRatio}
}

func (p DynamicPolicy) Name() string { return PolicyDynamic }

func (p DynamicPolicy) minSamples() int {
	if p.MinSamples < MinSamplesFloor {
		return MinSamplesFloor
	}
	return p.MinSamples
}

func (p DynamicPolicy) Thresholds(window []float64) (model.ThresholdPair, error) {
	if need := p.minSamples(); len(window) < need {
		return model.ThresholdPair{}, fmt.Errorf("%w: window has %d samples, need %d", ErrInsufficientData, len(window), need)
	}
	for i, v := range window {
		if !validVolatility(v) {
			return model.ThresholdPair{}, fmt.Errorf("%w: window[%d] = %v", ErrInvalidVolatility, i, v)
		}
	}
	ratio := p.BufferRatio
	if ratio <= 0 {
		ratio = DefaultBufferRatio
	}

	p25, err := calculator.Percentile(window, 25)
	if err != nil {
		return model.ThresholdPair{}, err
	}
	p75, err := calculator.Percentile(window, 75)
	if err != nil {
		return model.ThresholdPair{}, err
	}
	buffer := (p75 - p25) * ratio
	return model.ThresholdPair{
		Low:        p25 - buffer,
		High:       p75 + buffer,
		P25:        p25,
		P75:        p75,
		Degenerate: p25 == p75,
	}, nil
}

// StaticPolicy uses fixed bounds and ignores the window.
type StaticPolicy struct {
	Low  float64
	High float64
}

// NewStaticPolicy returns the 1.5 / 3.0 policy.
func NewStaticPolicy() StaticPolicy {
	return StaticPolicy{Low: DefaultStaticLow, High: DefaultStaticHigh}
}

func (p StaticPolicy) Name() string { return PolicyStatic }

func (p StaticPolicy) Thresholds([]float64) (model.ThresholdPair, error) {
	if p.Low > p.High {
		return model.ThresholdPair{}, fmt.Errorf("static thresholds out of order: low %v > high %v", p.Low, p.High)
	}
	return model.ThresholdPair{Low: p.Low, High: p.High}, nil
}

// PolicyByName builds a policy from its configured name.
func PolicyByName(name string, dynamic DynamicPolicy, static StaticPolicy) (ThresholdPolicy, error) {
	switch name {
	case PolicyDynamic, "":
		return dynamic, nil
	case PolicyStatic:
		return static, nil
	default:
		return nil, fmt.Errorf("unknown threshold policy %q", name)
	}
}

func validVolatility(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
