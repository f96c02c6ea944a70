package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"p25 of 1..5", []float64{1, 2, 3, 4, 5}, 25, 2},
		{"p75 of 1..5", []float64{1, 2, 3, 4, 5}, 75, 4},
		{"p25 of 1..4 interpolates", []float64{1, 2, 3, 4}, 25, 1.75},
		{"p75 of 1..4 interpolates", []float64{1, 2, 3, 4}, 75, 3.25},
		{"unsorted input", []float64{4, 1, 3, 2}, 50, 2.5},
		{"single value", []float64{7}, 90, 7},
		{"p0 is min", []float64{3, 9, 1}, 0, 1},
		{"p100 is max", []float64{3, 9, 1}, 100, 9},
		{"outlier window p25", []float64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 100}, 25, 2},
		{"outlier window p75", []float64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 100}, 75, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentile(tt.values, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	values := []float64{5, 3, 1}
	_, err := Percentile(values, 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 3, 1}, values)
}

func TestPercentileErrors(t *testing.T) {
	_, err := Percentile(nil, 50)
	assert.Error(t, err)
	_, err = Percentile([]float64{1, 2}, 101)
	assert.Error(t, err)
	_, err = Percentile([]float64{1, 2}, -1)
	assert.Error(t, err)
}

func TestStdDev(t *testing.T) {
	sd, err := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(32.0/7.0), sd, 1e-9)

	_, err = StdDev([]float64{1})
	assert.Error(t, err)
}

func TestPctReturns(t *testing.T) {
	r, err := PctReturns([]float64{100, 110, 99})
	require.NoError(t, err)
	require.Len(t, r, 2)
	assert.InDelta(t, 10.0, r[0], 1e-9)
	assert.InDelta(t, -10.0, r[1], 1e-9)

	_, err = PctReturns([]float64{0, 1})
	assert.Error(t, err)
	_, err = PctReturns([]float64{1})
	assert.Error(t, err)
}

func TestRollingStdDev(t *testing.T) {
	out, err := RollingStdDev([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, v := range out {
		assert.InDelta(t, 1.0, v, 1e-9)
	}

	_, err = RollingStdDev([]float64{1, 2}, 3)
	assert.Error(t, err)
	_, err = RollingStdDev([]float64{1, 2, 3}, 1)
	assert.Error(t, err)
}

func TestSMA(t *testing.T) {
	v, err := SMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, v, 1e-9)

	_, err = SMA([]float64{1}, 2)
	assert.Error(t, err)
	_, err = SMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestRangeAndPosition(t *testing.T) {
	high, low, err := Range([]float64{3, -1, 8, 2})
	require.NoError(t, err)
	assert.Equal(t, 8.0, high)
	assert.Equal(t, -1.0, low)

	pos, err := Position(5, 10, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos, 1e-9)

	pos, err = Position(20, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pos)

	_, err = Position(1, 0, 10)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.P25, 1e-9)
	assert.InDelta(t, 4.0, s.P75, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)

	s, err = Summarize([]float64{4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.StdDev)
}
