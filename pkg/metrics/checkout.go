package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts checkout outcomes.
type CheckoutMetrics struct {
	placed   prometheus.Counter
	rejected *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout counters on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_placed_total",
		Help: "Orders successfully placed.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_rejected_total",
		Help: "Checkout attempts rejected before an order was created.",
	}, []string{"reason"})
	reg.MustRegister(placed, rejected)
	return &CheckoutMetrics{placed: placed, rejected: rejected}
}

// IncPlaced counts one placed order.
func (m *CheckoutMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

// IncRejected counts one rejected checkout attempt.
func (m *CheckoutMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
