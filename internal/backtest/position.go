package backtest

import (
	"fmt"
	"strings"

	"GarchSentinel/internal/model"
)

// StartMode decides how capital is allocated at the first observation.
type StartMode string

const (
	// StartFromSignal goes long when the first signal is BUY and stays in cash otherwise.
	StartFromSignal StartMode = "signal"
	// StartLong always converts the capital at the first price.
	StartLong StartMode = "long"
	// StartFlat always starts in cash.
	StartFlat StartMode = "flat"
)

// ParseStartMode accepts signal, long or flat; empty means StartFromSignal.
func ParseStartMode(s string) (StartMode, error) {
	switch StartMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", StartFromSignal:
		return StartFromSignal, nil
	case StartLong:
		return StartLong, nil
	case StartFlat:
		return StartFlat, nil
	default:
		return "", fmt.Errorf("unknown start mode %q", s)
	}
}

// Position is the long/flat state shared by the simulator and the paper ledger.
type Position struct {
	model.PortfolioState
}

// Open allocates capital at the first observation according to mode.
func Open(capital, price float64, first model.Signal, mode StartMode) Position {
	long := mode == StartLong || (mode != StartFlat && first == model.SignalBuy)
	if long {
		return Position{model.PortfolioState{Holdings: capital / price, Active: model.SignalBuy}}
	}
	p := Position{model.PortfolioState{Cash: capital}}
	if mode != StartFlat && first == model.SignalSell {
		p.Active = model.SignalSell
	}
	return p
}

// Step applies one signal at price. SELL liquidates when holding the asset,
// BUY converts all cash, HOLD never moves capital or changes Active.
// It reports the executed action, if any.
func (p *Position) Step(sig model.Signal, price float64) (model.Signal, bool) {
	switch {
	case sig == model.SignalSell && p.Holdings > 0:
		p.Cash = p.Holdings * price
		p.Holdings = 0
		p.Active = model.SignalSell
		return model.SignalSell, true
	case sig == model.SignalBuy && p.Cash > 0:
		p.Holdings = p.Cash / price
		p.Cash = 0
		p.Active = model.SignalBuy
		return model.SignalBuy, true
	default:
		return "", false
	}
}

// Value marks the position to market.
func (p Position) Value(price float64) float64 {
	return p.Cash + p.Holdings*price
}
