package strategy

import (
	"fmt"

	"GarchSentinel/internal/model"
)

// ClassifySeries computes thresholds once over the whole series and classifies
// every value against them.
func ClassifySeries(vols []float64, policy ThresholdPolicy) ([]model.Signal, model.ThresholdPair, error) {
	for i, v := range vols {
		if !validVolatility(v) {
			return nil, model.ThresholdPair{}, fmt.Errorf("%w: vols[%d] = %v", ErrInvalidVolatility, i, v)
		}
	}
	tp, err := policy.Thresholds(vols)
	if err != nil {
		return nil, model.ThresholdPair{}, err
	}
	signals := make([]model.Signal, len(vols))
	for i, v := range vols {
		signals[i] = Apply(v, tp)
	}
	return signals, tp, nil
}

// Distribute counts each signal and the number of changes between consecutive entries.
func Distribute(signals []model.Signal) model.SignalDistribution {
	d := model.SignalDistribution{Total: len(signals)}
	for i, s := range signals {
		switch s {
		case model.SignalBuy:
			d.Buy++
		case model.SignalSell:
			d.Sell++
		case model.SignalHold:
			d.Hold++
		}
		if i > 0 && s != signals[i-1] {
			d.Changes++
		}
	}
	for _, n := range []int{d.Buy, d.Sell, d.Hold} {
		if n > 0 {
			d.Unique++
		}
	}
	if d.Total > 0 {
		total := float64(d.Total)
		d.BuyPct = float64(d.Buy) / total * 100
		d.SellPct = float64(d.Sell) / total * 100
		d.HoldPct = float64(d.Hold) / total * 100
	}
	return d
}
