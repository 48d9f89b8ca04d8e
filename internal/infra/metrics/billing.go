package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsAmountTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment attempts by result (accepted/rejected_overpayment/rejected_state/rejected_amount/error).",
		},
		[]string{"result"},
	)

	paymentsAmountTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_amount_total",
			Help: "Total monetary value of accepted payments.",
		},
	)
)

func IncPayment(result string) {
	paymentsTotal.WithLabelValues(norm(result)).Inc()
}

func AddPaymentAmount(amount float64) {
	paymentsAmountTotal.Add(amount)
}
