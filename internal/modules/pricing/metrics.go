package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safari_pricing_quotes_total",
			Help: "Price calculations by reservation type and outcome.",
		},
		[]string{"reservation_type", "result"},
	)
	configUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safari_pricing_config_updates_total",
			Help: "Pricing config versions saved.",
		},
	)
)

func observeQuote(rt ReservationType, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	label := string(rt)
	if !rt.Valid() {
		label = "unknown"
	}
	quotesTotal.WithLabelValues(label, result).Inc()
}
