package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garchsentinel_cycles_total",
			Help: "Signal cycles by result",
		},
		[]string{"result"},
	)
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "garchsentinel_cycle_seconds",
			Help:    "Signal cycle latency",
			Buckets: prometheus.DefBuckets,
		},
	)
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garchsentinel_predictions_total",
			Help: "Recorded predictions by signal and policy",
		},
		[]string{"signal", "policy"},
	)
	PolicyFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "garchsentinel_policy_fallbacks_total",
			Help: "Classifications that fell back to the secondary threshold policy",
		},
	)
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garchsentinel_notifications_total",
			Help: "Notification attempts by channel and result",
		},
		[]string{"channel", "result"},
	)
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garchsentinel_publish_total",
			Help: "Broker publish attempts by topic and result",
		},
		[]string{"topic", "result"},
	)
	LastVolatility = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "garchsentinel_predicted_volatility",
			Help: "Most recent predicted volatility (percent)",
		},
	)
	LastPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "garchsentinel_price",
			Help: "Most recent asset price",
		},
	)
	ThresholdGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "garchsentinel_threshold",
			Help: "Thresholds used for the most recent classification",
		},
		[]string{"bound"},
	)
	PortfolioValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "garchsentinel_portfolio_value",
			Help: "Paper portfolio mark-to-market value",
		},
	)
)

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
