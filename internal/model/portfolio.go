package model

import "time"

// Observation is one simulator input: a price and the signal emitted at that price.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Signal    Signal    `json:"signal"`
}

// PortfolioState is the single-asset long/flat position. At most one of Cash
// and Holdings is non-zero. An empty Active means no trade has happened yet
// and the capital sits in cash.
type PortfolioState struct {
	Cash     float64 `json:"cash"`
	Holdings float64 `json:"holdings"`
	Active   Signal  `json:"active,omitempty"`
}

// TradeEvent records one switch between cash and the asset.
type TradeEvent struct {
	Index     int       `json:"index"`
	Action    Signal    `json:"action"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// PerformanceReport summarizes a simulation against buy-and-hold.
type PerformanceReport struct {
	InitialCapital float64      `json:"initial_capital"`
	FinalValue     float64      `json:"final_value"`
	ReturnPct      float64      `json:"return_pct"`
	HodlValue      float64      `json:"hodl_value"`
	HodlReturnPct  float64      `json:"hodl_return_pct"`
	VsHodl         float64      `json:"vs_hodl"`
	VsHodlPct      float64      `json:"vs_hodl_pct"`
	TradeCount     int          `json:"trade_count"`
	Trades         []TradeEvent `json:"trades"`
}

// LedgerState is the persisted paper portfolio that follows live signals.
type LedgerState struct {
	InitialCapital float64        `json:"initial_capital"`
	Started        bool           `json:"started"`
	FirstPrice     float64        `json:"first_price"`
	Position       PortfolioState `json:"position"`
	Trades         []TradeEvent   `json:"trades"`
	Steps          int            `json:"steps"`
	LastPrice      float64        `json:"last_price"`
	StartedAt      time.Time      `json:"started_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
