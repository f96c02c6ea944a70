package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GarchSentinel/internal/model"
)

func TestClassifySeries_Static(t *testing.T) {
	signals, tp, err := ClassifySeries([]float64{1.0, 2.0, 3.5, 1.2}, NewStaticPolicy())
	require.NoError(t, err)
	assert.Equal(t, 1.5, tp.Low)
	assert.Equal(t, []model.Signal{model.SignalBuy, model.SignalHold, model.SignalSell, model.SignalBuy}, signals)
}

func TestClassifySeries_Dynamic(t *testing.T) {
	signals, tp, err := ClassifySeries(outlierWindow, DynamicPolicy{MinSamples: 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.8, tp.Low, 1e-9)
	require.Len(t, signals, len(outlierWindow))
	assert.Equal(t, model.SignalBuy, signals[0])
	assert.Equal(t, model.SignalHold, signals[4])
	assert.Equal(t, model.SignalSell, signals[16])

	_, _, err = ClassifySeries([]float64{1}, NewDynamicPolicy())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDistribute(t *testing.T) {
	d := Distribute([]model.Signal{
		model.SignalBuy, model.SignalBuy, model.SignalHold, model.SignalSell,
	})
	assert.Equal(t, 4, d.Total)
	assert.Equal(t, 2, d.Buy)
	assert.Equal(t, 1, d.Hold)
	assert.Equal(t, 1, d.Sell)
	assert.Equal(t, 2, d.Changes)
	assert.Equal(t, 3, d.Unique)
	assert.InDelta(t, 50.0, d.BuyPct, 1e-9)

	empty := Distribute(nil)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0.0, empty.BuyPct)
}
