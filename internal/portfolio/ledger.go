package portfolio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/model"
)

// Ledger is a paper portfolio that follows live signals with the same
// transition rule as the simulator.
type Ledger struct {
	mu       sync.Mutex
	state    *model.LedgerState
	filePath string
	start    backtest.StartMode
}

// NewLedger creates a Ledger, loading or initializing state from disk.
func NewLedger(filePath string, initialCapital float64, start backtest.StartMode) (*Ledger, error) {
	if initialCapital <= 0 {
		initialCapital = backtest.DefaultInitialCapital
	}
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	if state.InitialCapital == 0 {
		state.InitialCapital = initialCapital
		state.Position = model.PortfolioState{Cash: initialCapital}
	}
	l := &Ledger{state: state, filePath: filePath, start: start}
	if err := l.save(); err != nil {
		return nil, err
	}
	return l, nil
}

// State returns a copy of the current ledger state.
func (l *Ledger) State() model.LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := *l.state
	s.Trades = append([]model.TradeEvent(nil), l.state.Trades...)
	return s
}

// Apply feeds one observation into the ledger. The first observation opens the
// position; later ones go through Position.Step. It returns the trade, if any.
func (l *Ledger) Apply(obs model.Observation) (*model.TradeEvent, error) {
	if !(obs.Price > 0) {
		return nil, fmt.Errorf("%w: %v", backtest.ErrInvalidPrice, obs.Price)
	}
	if !obs.Signal.Valid() {
		return nil, fmt.Errorf("unknown signal %q", obs.Signal)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var trade *model.TradeEvent
	if !l.state.Started {
		pos := backtest.Open(l.state.InitialCapital, obs.Price, obs.Signal, l.start)
		l.state.Position = pos.PortfolioState
		l.state.Started = true
		l.state.FirstPrice = obs.Price
		l.state.StartedAt = obs.Timestamp
	} else {
		pos := backtest.Position{PortfolioState: l.state.Position}
		if action, ok := pos.Step(obs.Signal, obs.Price); ok {
			trade = &model.TradeEvent{Index: l.state.Steps, Action: action, Price: obs.Price, Timestamp: obs.Timestamp}
			l.state.Trades = append(l.state.Trades, *trade)
		}
		l.state.Position = pos.PortfolioState
	}
	l.state.Steps++
	l.state.LastPrice = obs.Price

	if err := l.save(); err != nil {
		log.Error().Err(err).Str("path", l.filePath).Msg("failed to save ledger state")
	}
	return trade, nil
}

// Valuation marks the ledger to market at price and compares it to holding
// from the first observed price.
func (l *Ledger) Valuation(price float64) model.PerformanceReport {
	l.mu.Lock()
	defer l.mu.Unlock()

	initial := l.state.InitialCapital
	trades := append([]model.TradeEvent{}, l.state.Trades...)
	if !l.state.Started || price <= 0 {
		return backtest.NewReport(initial, initial, initial, trades)
	}
	pos := backtest.Position{PortfolioState: l.state.Position}
	return backtest.NewReport(initial, pos.Value(price), initial/l.state.FirstPrice*price, trades)
}

// Reset discards the position and trade log.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	capital := l.state.InitialCapital
	l.state = &model.LedgerState{InitialCapital: capital, Position: model.PortfolioState{Cash: capital}}
	return l.save()
}

func (l *Ledger) save() error {
	if l.filePath == "" {
		return nil
	}
	return SaveState(l.filePath, l.state)
}

