package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/model"
)

// FormatPrediction formats a new signal for chat delivery.
func FormatPrediction(p *model.Prediction, previous model.Signal) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s signal: %s</b>\n\n", p.Signal.Icon(), html.EscapeString(p.Asset), p.Signal))
	b.WriteString(fmt.Sprintf("Price: $%s\n", formatMoney(p.Price)))
	b.WriteString(fmt.Sprintf("Predicted volatility: %.4f%%\n", p.PredictedVolatility))
	b.WriteString(fmt.Sprintf("Thresholds (%s): low %.4f | high %.4f\n", p.Policy, p.ThresholdLow, p.ThresholdHigh))
	if p.Model != "" {
		b.WriteString(fmt.Sprintf("Model: %s", p.Model))
		if len(p.ModelParams) > 0 {
			b.WriteString(" (" + formatParams(p.ModelParams) + ")")
		}
		b.WriteString("\n")
	}
	if previous != "" && previous != p.Signal {
		b.WriteString(fmt.Sprintf("\nChanged from %s %s\n", previous.Icon(), previous))
	}
	b.WriteString(fmt.Sprintf("\n🕒 %s UTC", p.Timestamp.UTC().Format("2006-01-02 15:04")))
	return b.String()
}

// FormatLast formats the most recent recorded prediction, or a notice when none exists.
func FormatLast(p *model.Prediction) string {
	if p == nil {
		return "📭 No predictions recorded yet."
	}
	return FormatPrediction(p, "")
}

// FormatBacktest formats a simulator report.
func FormatBacktest(title string, r model.PerformanceReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b>\n\n", html.EscapeString(title)))
	b.WriteString(fmt.Sprintf("Initial capital: $%s\n", formatMoney(r.InitialCapital)))
	b.WriteString(fmt.Sprintf("Strategy: $%s (%+.2f%%)\n", formatMoney(r.FinalValue), r.ReturnPct))
	b.WriteString(fmt.Sprintf("HODL: $%s (%+.2f%%)\n", formatMoney(r.HodlValue), r.HodlReturnPct))
	b.WriteString(fmt.Sprintf("Vs HODL: %+.2f (%+.2f pp)\n", r.VsHodl, r.VsHodlPct))
	b.WriteString(fmt.Sprintf("Trades: %d\n", r.TradeCount))
	if r.VsHodl > 0 {
		b.WriteString("\n✅ Strategy beats HODL")
	} else {
		b.WriteString("\n❌ HODL wins")
	}
	return b.String()
}

// FormatValidation formats a reliability report of the recorded predictions.
func FormatValidation(r backtest.ValidationReport) string {
	var b strings.Builder
	b.WriteString("🔍 <b>Signal validation</b>\n\n")
	b.WriteString(fmt.Sprintf("%d predictions, %s to %s UTC\n\n",
		r.Count, r.From.UTC().Format("2006-01-02 15:04"), r.To.UTC().Format("2006-01-02 15:04")))
	for _, c := range r.Checks {
		mark := "❌"
		if c.Passed {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s %s: %s\n", mark, c.Name, html.EscapeString(c.Detail)))
	}
	b.WriteString(fmt.Sprintf("\nScore: %d/%d (%.0f%%), <b>%s</b>", r.Score, len(r.Checks), r.ScorePct, r.Verdict))
	return b.String()
}

// FormatComparison formats a static vs dynamic policy comparison.
func FormatComparison(results []backtest.ComparisonResult) string {
	var b strings.Builder
	b.WriteString("⚖️ <b>Threshold policy comparison</b>\n")
	var best *backtest.ComparisonResult
	for i := range results {
		r := &results[i]
		d := r.Distribution
		b.WriteString(fmt.Sprintf("\n<b>%s</b> [%.4f, %.4f]\n", r.Policy, r.Thresholds.Low, r.Thresholds.High))
		b.WriteString(fmt.Sprintf("  BUY %d (%.1f%%) | SELL %d (%.1f%%) | HOLD %d (%.1f%%)\n",
			d.Buy, d.BuyPct, d.Sell, d.SellPct, d.Hold, d.HoldPct))
		b.WriteString(fmt.Sprintf("  Return %+.2f%% vs HODL %+.2f%% | trades %d | changes %d\n",
			r.Report.ReturnPct, r.Report.HodlReturnPct, r.Report.TradeCount, d.Changes))
		if best == nil || r.Report.FinalValue > best.Report.FinalValue {
			best = r
		}
	}
	if best != nil {
		b.WriteString(fmt.Sprintf("\n🏆 Best: <b>%s</b>", best.Policy))
	}
	return b.String()
}

// FormatPortfolio formats the paper ledger valuation.
func FormatPortfolio(state model.LedgerState, r model.PerformanceReport) string {
	var b strings.Builder
	b.WriteString("💼 <b>Paper portfolio</b>\n\n")
	if !state.Started {
		b.WriteString(fmt.Sprintf("Waiting for the first signal. Capital: $%s", formatMoney(state.InitialCapital)))
		return b.String()
	}
	pos := "cash"
	if state.Position.Holdings > 0 {
		pos = fmt.Sprintf("%.6f units", state.Position.Holdings)
	}
	b.WriteString(fmt.Sprintf("Position: %s\n", pos))
	b.WriteString(fmt.Sprintf("Value: $%s (%+.2f%%)\n", formatMoney(r.FinalValue), r.ReturnPct))
	b.WriteString(fmt.Sprintf("HODL: $%s (%+.2f%%)\n", formatMoney(r.HodlValue), r.HodlReturnPct))
	b.WriteString(fmt.Sprintf("Trades: %d | steps: %d\n", r.TradeCount, state.Steps))
	b.WriteString(fmt.Sprintf("Since: %s", state.StartedAt.UTC().Format("2006-01-02 15:04")))
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return strings.Join([]string{
		"🤖 <b>Commands</b>",
		"",
		"/signal - run a cycle now",
		"/last - latest recorded prediction",
		"/backtest [n] - replay the last n predictions",
		"/compare [n] - static vs dynamic thresholds",
		"/validate [n] - reliability checks on recorded signals",
		"/portfolio - paper portfolio",
		"/reset - restart the paper portfolio",
		"/help - this message",
	}, "\n")
}

// FormatError formats a command failure.
func FormatError(action string, err error) string {
	return fmt.Sprintf("❌ %s failed: %s", action, html.EscapeString(err.Error()))
}

func formatParams(params map[string]float64) string {
	order := []string{"omega", "alpha", "beta", "lambda", "aic", "bic"}
	parts := make([]string, 0, len(params))
	for _, k := range order {
		if v, ok := params[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.4g", k, v))
		}
	}
	return strings.Join(parts, ", ")
}

// formatMoney renders 12345.678 as 12,345.68.
func formatMoney(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}
