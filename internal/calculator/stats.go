package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Percentile returns the p-th percentile of values using inclusive linear
// interpolation between order statistics: rank = p/100*(n-1) over a sorted copy.
// values is not modified.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values provided")
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, fmt.Errorf("percentile %v out of range [0,100]", p)
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

// Mean returns the arithmetic mean.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values provided")
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// StdDev returns the sample standard deviation (n-1 denominator).
func StdDev(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, errors.New("need at least 2 values for standard deviation")
	}
	mean, _ := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1)), nil
}

// PctReturns converts a price series into percentage simple returns
// (100 * (p[i]/p[i-1] - 1)). The result is one shorter than prices.
func PctReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, errors.New("need at least 2 prices for returns")
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			return nil, fmt.Errorf("non-positive price %v at index %d", prices[i-1], i-1)
		}
		out = append(out, (prices[i]/prices[i-1]-1)*100)
	}
	return out, nil
}

// Summary describes a numeric sample.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// Summarize computes a Summary. StdDev is zero for a single value.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.New("no values provided")
	}
	s := Summary{Count: len(values)}
	s.Mean, _ = Mean(values)
	if len(values) > 1 {
		s.StdDev, _ = StdDev(values)
	}
	s.Max, s.Min, _ = Range(values)
	s.P25, _ = Percentile(values, 25)
	s.P75, _ = Percentile(values, 75)
	return s, nil
}
