package scheduler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/notifier"
)

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command, args string) string {
	switch strings.ToLower(command) {
	case "/signal":
		res, err := s.RunCycle(ctx)
		if err != nil {
			return notifier.FormatError("Signal cycle", err)
		}
		if res.Notified {
			return ""
		}
		return notifier.FormatPrediction(&res.Prediction, "") + "\n\n(no change)"
	case "/last":
		last, err := s.Recorder.LastPrediction(ctx)
		if err != nil {
			return notifier.FormatError("Reading history", err)
		}
		return notifier.FormatLast(last)
	case "/backtest":
		report, err := s.Backtest(ctx, parseLimit(args), s.BacktestOptions)
		if errors.Is(err, backtest.ErrEmptyInput) {
			return notifier.FormatBacktest("Backtest of recorded signals", report) + "\n\n⚠️ Not enough history yet, showing the untouched capital."
		}
		if err != nil {
			return notifier.FormatError("Backtest", err)
		}
		return notifier.FormatBacktest("Backtest of recorded signals", report)
	case "/validate":
		report, err := s.Validate(ctx, parseLimit(args))
		if err != nil {
			return notifier.FormatError("Validation", err)
		}
		return notifier.FormatValidation(report)
	case "/compare":
		results, err := s.Compare(ctx, parseLimit(args))
		if err != nil {
			return notifier.FormatError("Comparison", err)
		}
		return notifier.FormatComparison(results)
	case "/portfolio":
		if s.Ledger == nil {
			return "Paper portfolio is disabled."
		}
		state := s.Ledger.State()
		return notifier.FormatPortfolio(state, s.Ledger.Valuation(state.LastPrice))
	case "/reset":
		if s.Ledger == nil {
			return "Paper portfolio is disabled."
		}
		if err := s.Ledger.Reset(); err != nil {
			return notifier.FormatError("Portfolio reset", err)
		}
		return "💼 Paper portfolio reset. It reopens on the next signal."
	default:
		return notifier.FormatHelp()
	}
}

func parseLimit(args string) int {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
