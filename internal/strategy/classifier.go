package strategy

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/model"
)

// Classifier maps a predicted volatility to a Signal. Fallback, when set, is
// consulted by ClassifyWithFallback if Policy lacks data.
type Classifier struct {
	Policy   ThresholdPolicy
	Fallback ThresholdPolicy
}

// NewClassifier returns a classifier with the given primary and fallback policies.
func NewClassifier(policy, fallback ThresholdPolicy) *Classifier {
	return &Classifier{Policy: policy, Fallback: fallback}
}

// Decision is the outcome of ClassifyWithFallback.
type Decision struct {
	Signal     model.Signal        `json:"signal"`
	Thresholds model.ThresholdPair `json:"thresholds"`
	Policy     string              `json:"policy"`
	FellBack   bool                `json:"fell_back"`
}

// Classify returns SELL above the high threshold, BUY below the low one and
// HOLD otherwise (bounds inclusive).
func (c *Classifier) Classify(predicted float64, window []float64) (model.Signal, model.ThresholdPair, error) {
	return classify(c.Policy, predicted, window)
}

// ClassifyWithFallback behaves like Classify but retries with the fallback
// policy when the primary one reports ErrInsufficientData.
func (c *Classifier) ClassifyWithFallback(predicted float64, window []float64) (Decision, error) {
	sig, tp, err := classify(c.Policy, predicted, window)
	if err == nil {
		return Decision{Signal: sig, Thresholds: tp, Policy: c.Policy.Name()}, nil
	}
	if !errors.Is(err, ErrInsufficientData) || c.Fallback == nil {
		return Decision{}, err
	}
	log.Warn().Err(err).
		Str("policy", c.Policy.Name()).
		Str("fallback", c.Fallback.Name()).
		Msg("falling back to secondary threshold policy")
	sig, tp, err = classify(c.Fallback, predicted, window)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Signal: sig, Thresholds: tp, Policy: c.Fallback.Name(), FellBack: true}, nil
}

func classify(policy ThresholdPolicy, predicted float64, window []float64) (model.Signal, model.ThresholdPair, error) {
	if policy == nil {
		return "", model.ThresholdPair{}, errors.New("no threshold policy configured")
	}
	if !validVolatility(predicted) {
		return "", model.ThresholdPair{}, fmt.Errorf("%w: predicted %v", ErrInvalidVolatility, predicted)
	}
	tp, err := policy.Thresholds(window)
	if err != nil {
		return "", model.ThresholdPair{}, err
	}
	if tp.Degenerate {
		log.Warn().
			Str("policy", policy.Name()).
			Float64("p25", tp.P25).
			Float64("p75", tp.P75).
			Msg("degenerate thresholds: p25 equals p75, buffer is zero")
	}
	return Apply(predicted, tp), tp, nil
}

// Apply classifies predicted against precomputed thresholds.
func Apply(predicted float64, tp model.ThresholdPair) model.Signal {
	switch {
	case predicted > tp.High:
		return model.SignalSell
	case predicted < tp.Low:
		return model.SignalBuy
	default:
		return model.SignalHold
	}
}

// ClassifierFor builds a classifier from configured policy names. A fallback of
// "" or "none" disables the fallback.
func ClassifierFor(policy, fallback string, dynamic DynamicPolicy, static StaticPolicy) (*Classifier, error) {
	primary, err := PolicyByName(policy, dynamic, static)
	if err != nil {
		return nil, err
	}
	c := NewClassifier(primary, nil)
	if fallback == "" || fallback == "none" {
		return c, nil
	}
	if c.Fallback, err = PolicyByName(fallback, dynamic, static); err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return c, nil
}
