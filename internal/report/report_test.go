package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/calculator"
	"GarchSentinel/internal/model"
)

func TestPrintComparison(t *testing.T) {
	results := []backtest.ComparisonResult{
		{Policy: "static", Report: model.PerformanceReport{FinalValue: 950, ReturnPct: -5, TradeCount: 3}},
		{Policy: "dynamic", Report: model.PerformanceReport{FinalValue: 1100, ReturnPct: 10, TradeCount: 4}},
	}
	var buf bytes.Buffer
	PrintComparison(&buf, results)
	out := buf.String()

	assert.Contains(t, out, "Signal distribution")
	assert.Contains(t, out, "static")
	assert.Contains(t, out, "+10.00%")
	assert.Contains(t, out, "Best policy: dynamic")
}

func TestPrintBacktest(t *testing.T) {
	r := model.PerformanceReport{
		InitialCapital: 1000,
		FinalValue:     1466.67,
		TradeCount:     1,
		Trades: []model.TradeEvent{
			{Index: 1, Action: model.SignalSell, Price: 110, Timestamp: time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)},
		},
	}
	var buf bytes.Buffer
	PrintBacktest(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "1466.67")
	assert.Contains(t, out, "SELL")
	assert.Contains(t, out, "2025-01-01 01:00")
}

func TestPrintSummary(t *testing.T) {
	s, _ := calculator.Summarize([]float64{1, 2, 3, 4, 5})
	var buf bytes.Buffer
	PrintSummary(&buf, "vol", s)
	assert.True(t, strings.Contains(buf.String(), "2.0000"))
}

func TestBest(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)
}

func TestPrintValidation(t *testing.T) {
	v := backtest.ValidationReport{
		Count:          12,
		From:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:             time.Date(2025, 1, 1, 0, 55, 0, 0, time.UTC),
		AvgIntervalMin: 5,
		MedIntervalMin: 5,
		AccuracyPct:    83.3,
		Compared:       6,
		Checks: []backtest.ValidationCheck{
			{Name: backtest.CheckChanges, Passed: true, Detail: "11 changes, 2 distinct signals"},
			{Name: backtest.CheckVsHodl, Passed: false, Detail: "strategy -7.80% vs HODL +1.80%"},
		},
		Score:    1,
		ScorePct: 50,
		Verdict:  backtest.VerdictWeak,
	}
	var buf bytes.Buffer
	PrintValidation(&buf, v)
	out := buf.String()
	assert.Contains(t, out, "Validation of 12 predictions")
	assert.Contains(t, out, "2025-01-01 00:00 to 2025-01-01 00:55 UTC")
	assert.Contains(t, out, "83.3%")
	assert.Contains(t, out, "11 changes")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "Score: 1/2 (50%), weak")
}
