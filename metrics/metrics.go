package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/Puneet-Vishnoi/order-book/models"
)

const namespace = "orderbook"

// Metrics holds the placement instruments. A nil *Metrics records nothing.
type Metrics struct {
	placeOrders     *prometheus.CounterVec
	placeDuration   prometheus.Histogram
	matchedQuantity prometheus.Counter
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		placeOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "place_order_total",
			Help:      "Placements by outcome (matched, created, updated, error).",
		}, []string{"outcome"}),
		placeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "place_order_duration_seconds",
			Help:      "Wall time of a placement including the store transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
		matchedQuantity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matched_quantity_total",
			Help:      "Quantity consumed from resting orders.",
		}),
	}
	reg.MustRegister(m.placeOrders, m.placeDuration, m.matchedQuantity)
	return m
}

// ObservePlacement records one finished placement. outcome is nil on error.
func (m *Metrics) ObservePlacement(outcome *models.PlaceOrderOutcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.placeDuration.Observe(elapsed.Seconds())

	if outcome == nil {
		m.placeOrders.WithLabelValues("error").Inc()
		return
	}
	m.placeOrders.WithLabelValues(string(outcome.Kind)).Inc()

	consumed := decimal.Zero
	for _, r := range outcome.Results {
		consumed = consumed.Add(r.ConsumedQuantity)
	}
	if f, _ := consumed.Float64(); f > 0 {
		m.matchedQuantity.Add(f)
	}
}
