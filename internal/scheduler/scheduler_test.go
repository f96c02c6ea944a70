package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/collector"
	"GarchSentinel/internal/model"
	"GarchSentinel/internal/notifier"
	"GarchSentinel/internal/portfolio"
	"GarchSentinel/internal/recorder"
	"GarchSentinel/internal/strategy"
)

type scriptedForecaster struct {
	vols []float64
	i    int
}

func (f *scriptedForecaster) Name() string { return "scripted" }

func (f *scriptedForecaster) Forecast(context.Context, []float64) (model.Forecast, error) {
	v := f.vols[f.i%len(f.vols)]
	f.i++
	return model.Forecast{Volatility: v, Model: "scripted"}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingNotifier) Name() string { return "test" }

func (r *recordingNotifier) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return nil
}

type fixture struct {
	sched *Scheduler
	rec   *recorder.SQLiteRecorder
	note  *recordingNotifier
	fc    *scriptedForecaster
}

func newFixture(t *testing.T, vols ...float64) *fixture {
	t.Helper()

	col := collector.NewCollector(&collector.MockFetcher{Price: 50000}, "BTC-USD", collector.Options{MinBars: 50, Limit: 120})
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	col.Now = func() time.Time {
		calls++
		return t0.Add(time.Duration(calls) * time.Hour)
	}

	rec, err := recorder.NewSQLiteRecorder(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	ledger, err := portfolio.NewLedger("", 1000, backtest.StartFromSignal)
	require.NoError(t, err)

	note := &recordingNotifier{}
	fc := &scriptedForecaster{vols: vols}
	ids := 0
	s := NewScheduler(context.Background(), Deps{
		Collector:  col,
		Forecaster: fc,
		Classifier: strategy.NewClassifier(strategy.NewStaticPolicy(), nil),
		Ledger:     ledger,
		Notifier:   notifier.NewMulti(note),
		Recorder:   rec,
		Policies:   []strategy.ThresholdPolicy{strategy.NewStaticPolicy(), strategy.DynamicPolicy{MinSamples: 2}},
	})
	s.newID = func() string {
		ids++
		return fmt.Sprintf("pred-%d", ids)
	}
	return &fixture{sched: s, rec: rec, note: note, fc: fc}
}

func TestRunCycle_NotifiesOnlyOnSignalChange(t *testing.T) {
	f := newFixture(t, 1.0, 1.2, 3.5)
	ctx := context.Background()

	first, err := f.sched.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SignalBuy, first.Prediction.Signal)
	assert.Equal(t, strategy.PolicyStatic, first.Prediction.Policy)
	assert.Equal(t, 50000.0, first.Prediction.Price)
	assert.Nil(t, first.Previous)
	assert.True(t, first.Notified)
	assert.Nil(t, first.Trade, "opening allocation is not a trade")

	second, err := f.sched.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SignalBuy, second.Prediction.Signal)
	require.NotNil(t, second.Previous)
	assert.Equal(t, "pred-1", second.Previous.ID)
	assert.False(t, second.Notified)

	third, err := f.sched.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SignalSell, third.Prediction.Signal)
	assert.True(t, third.Notified)
	require.NotNil(t, third.Trade)
	assert.Equal(t, model.SignalSell, third.Trade.Action)

	require.Len(t, f.note.sent, 2)
	assert.Contains(t, f.note.sent[1], "Changed from")

	preds, err := f.rec.RecentPredictions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, preds, 3)
	assert.Equal(t, []string{"pred-1", "pred-2", "pred-3"}, []string{preds[0].ID, preds[1].ID, preds[2].ID})

	state := f.sched.Ledger.State()
	assert.Equal(t, 3, state.Steps)
	assert.Greater(t, state.Position.Cash, 0.0)
	assert.Zero(t, state.Position.Holdings)
}

func TestRunCycle_CollectFailure(t *testing.T) {
	f := newFixture(t, 1.0)
	f.sched.Collector.Fetcher = &collector.MockFetcher{Err: assert.AnError}

	_, err := f.sched.RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, f.note.sent)
}

func TestRunCycle_DynamicFallsBackWithoutWindow(t *testing.T) {
	f := newFixture(t, 2.0)
	// Too few bars for a rolling volatility window.
	f.sched.Collector.Options.VolPeriod = 500
	f.sched.Classifier = strategy.NewClassifier(strategy.NewDynamicPolicy(), strategy.NewStaticPolicy())

	res, err := f.sched.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, res.FellBack)
	assert.Equal(t, strategy.PolicyStatic, res.Prediction.Policy)
	assert.Equal(t, model.SignalHold, res.Prediction.Signal)
}

func TestShouldNotify(t *testing.T) {
	cur := model.Prediction{Signal: model.SignalHold}
	assert.True(t, ShouldNotify(nil, cur))
	assert.False(t, ShouldNotify(&model.Prediction{Signal: model.SignalHold}, cur))
	assert.True(t, ShouldNotify(&model.Prediction{Signal: model.SignalBuy}, cur))
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, 1.0, 1.0, 3.5, 1.0)
	ctx := context.Background()

	assert.Contains(t, f.sched.HandleCommand(ctx, "/last", ""), "No predictions")
	empty := f.sched.HandleCommand(ctx, "/backtest", "")
	assert.Contains(t, empty, "Not enough history")
	assert.Contains(t, empty, "Strategy: $1,000.00 (+0.00%)")
	assert.Contains(t, empty, "Trades: 0")
	assert.Contains(t, f.sched.HandleCommand(ctx, "/validate", ""), "Validation failed: too few predictions")

	// First cycle notifies, so the reply is left to the broadcast.
	assert.Empty(t, f.sched.HandleCommand(ctx, "/signal", ""))
	reply := f.sched.HandleCommand(ctx, "/signal", "")
	assert.Contains(t, reply, "(no change)")

	for i := 0; i < 2; i++ {
		_, err := f.sched.RunCycle(ctx)
		require.NoError(t, err)
	}

	assert.Contains(t, f.sched.HandleCommand(ctx, "/last", ""), "BUY")
	assert.Contains(t, f.sched.HandleCommand(ctx, "/backtest", "10"), "Trades: 2")
	cmp := f.sched.HandleCommand(ctx, "/compare", "")
	assert.Contains(t, cmp, "static")
	assert.Contains(t, cmp, "dynamic")
	assert.Contains(t, f.sched.HandleCommand(ctx, "/portfolio", ""), "$")
	assert.Contains(t, f.sched.HandleCommand(ctx, "/reset", ""), "reset")
	assert.Contains(t, f.sched.HandleCommand(ctx, "/portfolio", ""), "Waiting for the first signal")
	assert.Equal(t, notifier.FormatHelp(), f.sched.HandleCommand(ctx, "/help", ""))
	assert.True(t, strings.Contains(f.sched.HandleCommand(ctx, "/unknown", ""), "/signal"))
}

func TestValidate_RecordedHistory(t *testing.T) {
	f := newFixture(t, 1.0, 3.5)
	ctx := context.Background()
	for i := 0; i < backtest.MinValidationSamples; i++ {
		_, err := f.sched.RunCycle(ctx)
		require.NoError(t, err)
	}

	r, err := f.sched.Validate(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, backtest.MinValidationSamples, r.Count)
	assert.Equal(t, 5, r.Distribution.Buy)
	assert.Equal(t, 5, r.Distribution.Sell)
	assert.Equal(t, 9, r.Distribution.Changes)
	assert.Len(t, r.Checks, 6)
	assert.NotEmpty(t, r.Verdict)

	reply := f.sched.HandleCommand(ctx, "/validate", "")
	assert.Contains(t, reply, "Signal validation")
	assert.Contains(t, reply, "10 predictions")
	assert.Contains(t, reply, "Score:")

	_, err = f.sched.Validate(ctx, 5)
	assert.ErrorIs(t, err, backtest.ErrTooFewPredictions)
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(t, 1.0)
	require.NoError(t, f.sched.RegisterAll("0 0 * * * *"))
	assert.Len(t, f.sched.Cron.Entries(), 1)
	assert.Error(t, f.sched.RegisterAll("not a cron"))
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 25, parseLimit(" 25 "))
	assert.Zero(t, parseLimit(""))
	assert.Zero(t, parseLimit("-3"))
}

func TestDescribeWindow(t *testing.T) {
	res := &CycleResult{Prediction: model.Prediction{PredictedVolatility: 3}}
	describeWindow(res, []float64{1, 2, 5})
	assert.InDelta(t, 8.0/3, res.RecentVolatility, 1e-12)
	assert.InDelta(t, 0.5, res.RangePosition, 1e-12)

	empty := &CycleResult{}
	describeWindow(empty, nil)
	assert.Zero(t, empty.RecentVolatility)
}
