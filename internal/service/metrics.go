package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

type Metrics struct {
	ordersPlaced   *prometheus.CounterVec
	gatewayCalls   *prometheus.CounterVec
	commitDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_placed_total",
				Help: "Order placement attempts by payment type and outcome.",
			},
			[]string{"payment_type", "outcome"},
		),
		gatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Payment gateway calls by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		commitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "order_commit_duration_seconds",
				Help:    "Duration of the order commit transaction.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.ordersPlaced, m.gatewayCalls, m.commitDuration)
	return m
}

func (m *Metrics) OrderPlaced(paymentType d.PaymentType, outcome string) {
	m.ordersPlaced.WithLabelValues(string(paymentType), outcome).Inc()
}

func (m *Metrics) GatewayCall(endpoint, outcome string) {
	m.gatewayCalls.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) ObserveCommit(start time.Time) {
	m.commitDuration.Observe(time.Since(start).Seconds())
}
