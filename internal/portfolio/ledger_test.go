package portfolio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/model"
)

func TestLedger_FollowsSignals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := NewLedger(path, 1000, backtest.StartFromSignal)
	require.NoError(t, err)

	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	steps := []model.Observation{
		{Timestamp: t0, Price: 100, Signal: model.SignalBuy},
		{Timestamp: t0.Add(time.Hour), Price: 110, Signal: model.SignalSell},
		{Timestamp: t0.Add(2 * time.Hour), Price: 90, Signal: model.SignalBuy},
		{Timestamp: t0.Add(3 * time.Hour), Price: 120, Signal: model.SignalHold},
	}
	var trades int
	for _, o := range steps {
		tr, err := l.Apply(o)
		require.NoError(t, err)
		if tr != nil {
			trades++
		}
	}
	assert.Equal(t, 2, trades)

	v := l.Valuation(120)
	assert.InDelta(t, 1466.67, v.FinalValue, 0.01)
	assert.InDelta(t, 1200.0, v.HodlValue, 1e-9)
	assert.Equal(t, 2, v.TradeCount)

	// Simulator and ledger must agree on the same input.
	sim, err := backtest.Simulate(steps, backtest.DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, sim.FinalValue, v.FinalValue, 1e-9)
}

func TestLedger_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "ledger.json")
	l, err := NewLedger(path, 500, backtest.StartLong)
	require.NoError(t, err)
	_, err = l.Apply(model.Observation{Price: 50, Signal: model.SignalHold})
	require.NoError(t, err)

	reopened, err := NewLedger(path, 9999, backtest.StartLong)
	require.NoError(t, err)
	s := reopened.State()
	assert.Equal(t, 500.0, s.InitialCapital)
	assert.True(t, s.Started)
	assert.InDelta(t, 10.0, s.Position.Holdings, 1e-9)
	assert.Equal(t, 1, s.Steps)

	require.NoError(t, reopened.Reset())
	s = reopened.State()
	assert.False(t, s.Started)
	assert.Equal(t, 500.0, s.Position.Cash)
}

func TestLedger_RejectsBadInput(t *testing.T) {
	l, err := NewLedger("", 0, backtest.StartFromSignal)
	require.NoError(t, err)
	assert.Equal(t, backtest.DefaultInitialCapital, l.State().InitialCapital)

	_, err = l.Apply(model.Observation{Price: -1, Signal: model.SignalBuy})
	assert.ErrorIs(t, err, backtest.ErrInvalidPrice)
	_, err = l.Apply(model.Observation{Price: 1, Signal: "X"})
	assert.Error(t, err)

	v := l.Valuation(100)
	assert.Equal(t, 1000.0, v.FinalValue)
	assert.Equal(t, 0, v.TradeCount)
}
