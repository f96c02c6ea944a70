package collector

import (
	"context"
	"math"
	"time"

	"GarchSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.Bar
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _, interval string, limit int) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	step := time.Hour
	if interval == "1d" {
		step = 24 * time.Hour
	}
	return generateMockBars(m.Price, limit, step, time.Now().UTC()), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, _ string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Price, nil
}

// generateMockBars produces a deterministic wavy path ending at basePrice.
func generateMockBars(basePrice float64, count int, step time.Duration, end time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		x := float64(i - count + 1)
		p := basePrice * (1 + 0.01*math.Sin(x/3) + 0.004*math.Sin(x/11) + 0.0002*x)
		bars[i] = model.Bar{
			Time:   end.Add(time.Duration(i-count+1) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
