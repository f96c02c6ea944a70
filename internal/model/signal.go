package model

import (
	"fmt"
	"strings"
)

// Signal is the discrete trading recommendation derived from a volatility forecast.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// ParseSignal accepts BUY, SELL or HOLD in any case.
func ParseSignal(s string) (Signal, error) {
	switch Signal(strings.ToUpper(strings.TrimSpace(s))) {
	case SignalBuy:
		return SignalBuy, nil
	case SignalSell:
		return SignalSell, nil
	case SignalHold:
		return SignalHold, nil
	default:
		return "", fmt.Errorf("unknown signal %q", s)
	}
}

func (s Signal) String() string { return string(s) }

// Valid reports whether s is one of the three known signals.
func (s Signal) Valid() bool {
	return s == SignalBuy || s == SignalSell || s == SignalHold
}

// Icon returns the emoji used in chat messages.
func (s Signal) Icon() string {
	switch s {
	case SignalBuy:
		return "🟢"
	case SignalSell:
		return "🔴"
	case SignalHold:
		return "🟡"
	default:
		return "⚪"
	}
}

// ThresholdPair holds the volatility bounds used to classify a forecast.
// Low <= High always holds.
type ThresholdPair struct {
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	P25        float64 `json:"p25,omitempty"`
	P75        float64 `json:"p75,omitempty"`
	Degenerate bool    `json:"degenerate,omitempty"` // p25 == p75, zero-width buffer
}

// SignalDistribution counts signals over a series.
type SignalDistribution struct {
	Total   int     `json:"total"`
	Buy     int     `json:"buy"`
	Sell    int     `json:"sell"`
	Hold    int     `json:"hold"`
	BuyPct  float64 `json:"buy_pct"`
	SellPct float64 `json:"sell_pct"`
	HoldPct float64 `json:"hold_pct"`
	Changes int     `json:"changes"` // consecutive pairs with a different signal
	Unique  int     `json:"unique"`
}
