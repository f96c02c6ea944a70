package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/model"
)

type recordingNotifier struct {
	name string
	err  error
	mu   sync.Mutex
	sent []string
}

func (r *recordingNotifier) Name() string { return r.name }
func (r *recordingNotifier) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return r.err
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	bad := &recordingNotifier{name: "bad", err: errors.New("offline")}
	good := &recordingNotifier{name: "good"}
	m := NewMulti(bad, good)

	deliveries := m.Broadcast(context.Background(), "hi")
	require.Len(t, deliveries, 2)
	assert.Error(t, deliveries[0].Err)
	assert.NoError(t, deliveries[1].Err)
	assert.Equal(t, []string{"hi"}, good.sent)

	err := m.Send(context.Background(), "again")
	assert.ErrorContains(t, err, "bad: offline")
	assert.Len(t, good.sent, 2)
	assert.False(t, m.Empty())
	assert.True(t, NewMulti().Empty())
}

func TestWhatsAppNotifier_Send(t *testing.T) {
	var got sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/message/sendText/garch_bot_instance", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	w := NewWhatsAppNotifier(srv.URL+"/", "secret", "garch_bot_instance", "5215512345678")
	require.NoError(t, w.Send(context.Background(), "<b>BUY</b> now &amp; later"))
	assert.Equal(t, "5215512345678", got.Number)
	assert.Equal(t, "*BUY* now & later", got.TextMessage.Text)
	assert.Equal(t, 1200, got.Options.Delay)
	assert.Equal(t, "composing", got.Options.Presence)
}

func TestWhatsAppNotifier_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "bad key")
	}))
	defer srv.Close()

	w := NewWhatsAppNotifier(srv.URL, "x", "i", "1")
	err := w.Send(context.Background(), "hi")
	assert.ErrorContains(t, err, "401")
}

// fakeBotAPI answers the Bot API methods used by TelegramNotifier.
func fakeBotAPI(t *testing.T, sent chan<- string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"garch","username":"garch_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "HTML", r.FormValue("parse_mode"))
			sent <- r.FormValue("chat_id") + ":" + r.FormValue("text")
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"not found"}`)
		}
	}))
}

func TestTelegramNotifier_Send(t *testing.T) {
	sent := make(chan string, 1)
	srv := fakeBotAPI(t, sent)
	defer srv.Close()

	tg, err := NewTelegramNotifier("token", 42, "", srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	assert.Equal(t, "telegram", tg.Name())

	require.NoError(t, Retrying{TelegramNotifier: tg, MaxRetries: 1}.Send(context.Background(), "<b>hi</b>"))
	select {
	case got := <-sent:
		assert.Equal(t, "42:<b>hi</b>", got)
	case <-time.After(time.Second):
		t.Fatal("message not sent")
	}
}

func TestFormatPrediction(t *testing.T) {
	p := &model.Prediction{
		Timestamp:           time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC),
		Asset:               "BTC-USD",
		Price:               67123.456,
		PredictedVolatility: 0.4321,
		Signal:              model.SignalSell,
		Policy:              "dynamic",
		ThresholdLow:        0.2,
		ThresholdHigh:       0.4,
		Model:               "garch",
		ModelParams:         map[string]float64{"beta": 0.9, "omega": 0.01},
	}
	msg := FormatPrediction(p, model.SignalBuy)
	assert.Contains(t, msg, "BTC-USD signal: SELL")
	assert.Contains(t, msg, "$67,123.46")
	assert.Contains(t, msg, "omega=0.01, beta=0.9")
	assert.Contains(t, msg, "Changed from 🟢 BUY")
	assert.Contains(t, msg, "2025-06-01 08:30")

	assert.Contains(t, FormatLast(nil), "No predictions")
}

func TestFormatBacktestAndComparison(t *testing.T) {
	r := model.PerformanceReport{InitialCapital: 1000, FinalValue: 1466.67, HodlValue: 1200, VsHodl: 266.67, TradeCount: 2}
	msg := FormatBacktest("Backtest", r)
	assert.Contains(t, msg, "$1,466.67")
	assert.Contains(t, msg, "beats HODL")

	cmp := FormatComparison([]backtest.ComparisonResult{
		{Policy: "static", Report: model.PerformanceReport{FinalValue: 900}},
		{Policy: "dynamic", Report: model.PerformanceReport{FinalValue: 1100}},
	})
	assert.Contains(t, cmp, "Best: <b>dynamic</b>")
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0.50", formatMoney(0.5))
	assert.Equal(t, "999.00", formatMoney(999))
	assert.Equal(t, "1,000.00", formatMoney(1000))
	assert.Equal(t, "-12,345,678.90", formatMoney(-12345678.9))
	assert.Equal(t, "1,234.57", formatMoney(1234.567))
}

func TestFormatValidation(t *testing.T) {
	r := backtest.ValidationReport{
		Count: 12,
		From:  time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		To:    time.Date(2025, 6, 1, 8, 55, 0, 0, time.UTC),
		Checks: []backtest.ValidationCheck{
			{Name: backtest.CheckBalance, Passed: true, Detail: "BUY 50.0% SELL 50.0% HOLD 0.0%"},
			{Name: backtest.CheckCadence, Passed: false, Detail: "mean interval 1.0 min, expected 4-6"},
		},
		Score:    1,
		ScorePct: 50,
		Verdict:  backtest.VerdictWeak,
	}
	msg := FormatValidation(r)
	assert.Contains(t, msg, "12 predictions, 2025-06-01 08:00 to 2025-06-01 08:55 UTC")
	assert.Contains(t, msg, "✅ balanced_signals: BUY 50.0%")
	assert.Contains(t, msg, "❌ cycle_cadence: mean interval 1.0 min")
	assert.Contains(t, msg, "Score: 1/2 (50%), <b>weak</b>")
	assert.Contains(t, FormatHelp(), "/validate")
}
