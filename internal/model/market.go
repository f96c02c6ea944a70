package model

import "time"

// Bar represents a single candlestick bar.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// VolatilityObservation is one forecast produced for a point in time.
type VolatilityObservation struct {
	Timestamp           time.Time `json:"timestamp"`
	Price               float64   `json:"price"`
	PredictedVolatility float64   `json:"predicted_volatility"`
}

// Forecast is the output of a volatility forecaster.
type Forecast struct {
	Volatility float64            `json:"volatility"`
	Model      string             `json:"model"`
	Params     map[string]float64 `json:"params,omitempty"`
}

// Snapshot holds the market data gathered for one signal cycle.
type Snapshot struct {
	Asset     string
	Price     float64
	Returns   []float64 // percentage returns, oldest first
	VolWindow []float64 // trailing realized volatility samples
	Bars      []Bar
	FetchedAt time.Time
}
