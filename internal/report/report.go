package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/calculator"
	"GarchSentinel/internal/model"
)

// PrintComparison renders the signal distribution and performance of each policy.
func PrintComparison(w io.Writer, results []backtest.ComparisonResult) {
	fmt.Fprintf(w, "\n=== Signal distribution ===\n")
	dist := tablewriter.NewWriter(w)
	dist.Header("Policy", "Low", "High", "BUY", "SELL", "HOLD", "Changes")
	for _, r := range results {
		d := r.Distribution
		dist.Append(
			r.Policy,
			fmt.Sprintf("%.4f", r.Thresholds.Low),
			fmt.Sprintf("%.4f", r.Thresholds.High),
			fmt.Sprintf("%d (%.1f%%)", d.Buy, d.BuyPct),
			fmt.Sprintf("%d (%.1f%%)", d.Sell, d.SellPct),
			fmt.Sprintf("%d (%.1f%%)", d.Hold, d.HoldPct),
			fmt.Sprintf("%d", d.Changes),
		)
	}
	dist.Render()

	fmt.Fprintf(w, "\n=== Performance ===\n")
	perf := tablewriter.NewWriter(w)
	perf.Header("Policy", "Final $", "Return", "HODL $", "HODL return", "Vs HODL", "Trades")
	for _, r := range results {
		p := r.Report
		perf.Append(
			r.Policy,
			fmt.Sprintf("%.2f", p.FinalValue),
			fmt.Sprintf("%+.2f%%", p.ReturnPct),
			fmt.Sprintf("%.2f", p.HodlValue),
			fmt.Sprintf("%+.2f%%", p.HodlReturnPct),
			fmt.Sprintf("%+.2f", p.VsHodl),
			fmt.Sprintf("%d", p.TradeCount),
		)
	}
	perf.Render()

	if best, ok := Best(results); ok {
		fmt.Fprintf(w, "\n  Best policy: %s (%+.2f%%)\n", best.Policy, best.Report.ReturnPct)
	}
}

// PrintBacktest renders one simulator report and its trade log.
func PrintBacktest(w io.Writer, r model.PerformanceReport) {
	fmt.Fprintf(w, "\n=== Backtest ===\n")
	fmt.Fprintf(w, "  Initial capital: %.2f\n", r.InitialCapital)
	fmt.Fprintf(w, "  Strategy:        %.2f (%+.2f%%)\n", r.FinalValue, r.ReturnPct)
	fmt.Fprintf(w, "  HODL:            %.2f (%+.2f%%)\n", r.HodlValue, r.HodlReturnPct)
	fmt.Fprintf(w, "  Vs HODL:         %+.2f (%+.2f pp)\n", r.VsHodl, r.VsHodlPct)
	fmt.Fprintf(w, "  Trades:          %d\n", r.TradeCount)

	if len(r.Trades) == 0 {
		return
	}
	tbl := tablewriter.NewWriter(w)
	tbl.Header("#", "Index", "Time", "Action", "Price")
	for i, t := range r.Trades {
		ts := "-"
		if !t.Timestamp.IsZero() {
			ts = t.Timestamp.UTC().Format("2006-01-02 15:04")
		}
		tbl.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", t.Index),
			ts,
			string(t.Action),
			fmt.Sprintf("%.2f", t.Price),
		)
	}
	tbl.Render()
}

// PrintValidation renders the reliability checks of recorded predictions.
func PrintValidation(w io.Writer, v backtest.ValidationReport) {
	fmt.Fprintf(w, "\n=== Validation of %d predictions ===\n", v.Count)
	fmt.Fprintf(w, "  Period:   %s to %s UTC\n", v.From.UTC().Format("2006-01-02 15:04"), v.To.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Interval: mean %.1f min, median %.1f min\n", v.AvgIntervalMin, v.MedIntervalMin)
	fmt.Fprintf(w, "  Accuracy: %.1f%% (MAE %.4f, RMSE %.4f, n=%d)\n", v.AccuracyPct, v.MAE, v.RMSE, v.Compared)
	fmt.Fprintf(w, "  Forecast: mean %.4f, std %.4f\n", v.VolMean, v.VolStdDev)

	tbl := tablewriter.NewWriter(w)
	tbl.Header("Check", "Result", "Detail")
	for _, c := range v.Checks {
		result := "FAIL"
		if c.Passed {
			result = "PASS"
		}
		tbl.Append(c.Name, result, c.Detail)
	}
	tbl.Render()

	fmt.Fprintf(w, "\n  Score: %d/%d (%.0f%%), %s\n", v.Score, len(v.Checks), v.ScorePct, v.Verdict)
}

// PrintSummary renders descriptive statistics of a volatility series.
func PrintSummary(w io.Writer, title string, s calculator.Summary) {
	tbl := tablewriter.NewWriter(w)
	tbl.Header(title, "Value")
	tbl.Append("count", fmt.Sprintf("%d", s.Count))
	tbl.Append("mean", fmt.Sprintf("%.4f", s.Mean))
	tbl.Append("std", fmt.Sprintf("%.4f", s.StdDev))
	tbl.Append("min", fmt.Sprintf("%.4f", s.Min))
	tbl.Append("p25", fmt.Sprintf("%.4f", s.P25))
	tbl.Append("p75", fmt.Sprintf("%.4f", s.P75))
	tbl.Append("max", fmt.Sprintf("%.4f", s.Max))
	tbl.Render()
}

// Best returns the result with the highest final value.
func Best(results []backtest.ComparisonResult) (backtest.ComparisonResult, bool) {
	if len(results) == 0 {
		return backtest.ComparisonResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Report.FinalValue > best.Report.FinalValue {
			best = r
		}
	}
	return best, true
}
