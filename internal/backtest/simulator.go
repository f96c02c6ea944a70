package backtest

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"GarchSentinel/internal/model"
)

var (
	// ErrEmptyInput is returned with the zero-trade baseline report when fewer
	// than two observations are supplied.
	ErrEmptyInput = errors.New("need at least 2 observations")
	// ErrInvalidPrice is returned when an observation has a non-positive price.
	ErrInvalidPrice = errors.New("invalid price")
)

const DefaultInitialCapital = 1000.0

// Options configures a simulation run.
type Options struct {
	InitialCapital float64   // zero means DefaultInitialCapital
	Start          StartMode // empty means StartFromSignal
}

// DefaultOptions returns 1000 of capital and the signal-driven start.
func DefaultOptions() Options {
	return Options{InitialCapital: DefaultInitialCapital, Start: StartFromSignal}
}

func (o Options) normalized() (Options, error) {
	if o.InitialCapital == 0 {
		o.InitialCapital = DefaultInitialCapital
	}
	if o.InitialCapital < 0 || math.IsNaN(o.InitialCapital) || math.IsInf(o.InitialCapital, 0) {
		return o, fmt.Errorf("initial capital must be a positive finite number, got %v", o.InitialCapital)
	}
	mode, err := ParseStartMode(string(o.Start))
	if err != nil {
		return o, err
	}
	o.Start = mode
	return o, nil
}

// Simulate replays observations as a single-asset long/flat strategy and
// compares the result to buying and holding over the same prices. Input is
// stably sorted by timestamp first; the caller's slice is left untouched.
func Simulate(observations []model.Observation, opts Options) (model.PerformanceReport, error) {
	opts, err := opts.normalized()
	if err != nil {
		return model.PerformanceReport{}, err
	}
	if len(observations) < 2 {
		return baseline(opts.InitialCapital), fmt.Errorf("%w: got %d", ErrEmptyInput, len(observations))
	}

	obs := make([]model.Observation, len(observations))
	copy(obs, observations)
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Timestamp.Before(obs[j].Timestamp)
	})
	for i, o := range obs {
		if !(o.Price > 0) {
			return model.PerformanceReport{}, fmt.Errorf("%w: %v at index %d", ErrInvalidPrice, o.Price, i)
		}
		if !o.Signal.Valid() {
			return model.PerformanceReport{}, fmt.Errorf("unknown signal %q at index %d", o.Signal, i)
		}
	}

	first, last := obs[0], obs[len(obs)-1]
	pos := Open(opts.InitialCapital, first.Price, first.Signal, opts.Start)
	trades := make([]model.TradeEvent, 0)
	for i := 1; i < len(obs); i++ {
		if action, ok := pos.Step(obs[i].Signal, obs[i].Price); ok {
			trades = append(trades, model.TradeEvent{
				Index:     i,
				Action:    action,
				Price:     obs[i].Price,
				Timestamp: obs[i].Timestamp,
			})
		}
	}

	return NewReport(opts.InitialCapital, pos.Value(last.Price), opts.InitialCapital/first.Price*last.Price, trades), nil
}

func baseline(capital float64) model.PerformanceReport {
	return NewReport(capital, capital, capital, []model.TradeEvent{})
}

// NewReport derives the return and HODL comparison fields.
func NewReport(initial, final, hodl float64, trades []model.TradeEvent) model.PerformanceReport {
	r := model.PerformanceReport{
		InitialCapital: initial,
		FinalValue:     final,
		HodlValue:      hodl,
		VsHodl:         final - hodl,
		TradeCount:     len(trades),
		Trades:         trades,
	}
	if initial > 0 {
		r.ReturnPct = (final - initial) / initial * 100
		r.HodlReturnPct = (hodl - initial) / initial * 100
		r.VsHodlPct = r.ReturnPct - r.HodlReturnPct
	}
	return r
}
