package api

import "time"

// ListRequest is the query of GET /api/predictions and /api/compare.
type ListRequest struct {
	Limit int `query:"limit" default:"100" validate:"gte=1,lte=10000"`
}

// BacktestRequest is the query of GET /api/backtest.
type BacktestRequest struct {
	Limit          int     `query:"limit" default:"500" validate:"gte=1,lte=10000"`
	InitialCapital float64 `query:"initial_capital" default:"1000" validate:"gt=0"`
	Start          string  `query:"start" default:"signal" validate:"oneof=signal long flat"`
}

// ValidateRequest is the query of GET /api/validate.
type ValidateRequest struct {
	Limit int `query:"limit" default:"500" validate:"gte=10,lte=10000"`
}

// ClassifyRequest is the body of POST /api/classify.
type ClassifyRequest struct {
	PredictedVolatility *float64  `json:"predicted_volatility" validate:"required"`
	Window              []float64 `json:"window"`
	Policy              string    `json:"policy" default:"dynamic" validate:"oneof=dynamic static"`
	MinSamples          int       `json:"min_samples" default:"20" validate:"gte=2"`
	BufferRatio         float64   `json:"buffer_ratio" default:"0.1" validate:"gte=0"`
	StaticLow           float64   `json:"static_low" default:"1.5" validate:"gte=0"`
	StaticHigh          float64   `json:"static_high" default:"3" validate:"gtefield=StaticLow"`
}

// ObservationRequest is one simulator input.
type ObservationRequest struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Signal    string    `json:"signal" validate:"required"`
}

// SimulateRequest is the body of POST /api/simulate.
type SimulateRequest struct {
	Observations   []ObservationRequest `json:"observations" validate:"dive"`
	InitialCapital float64              `json:"initial_capital" default:"1000" validate:"gt=0"`
	Start          string               `json:"start" default:"signal" validate:"oneof=signal long flat"`
}

// RunResponse is the body of POST /api/run.
type RunResponse struct {
	Status     string     `json:"status"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Asset      string     `json:"asset,omitempty"`
	Price      float64    `json:"price,omitempty"`
	Volatility float64    `json:"volatility,omitempty"`
	Signal     string     `json:"signal,omitempty"`
	Notified   bool       `json:"notified,omitempty"`
	Message    string     `json:"message,omitempty"`
}
