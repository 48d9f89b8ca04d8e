package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"advertiser-billing/internal/domain/model"
)

func init() {
	register(
		purchasesTotal,
		purchasesExpiredTotal,
	)
}

var (
	purchasesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "package_purchases_total",
			Help: "Current number of package purchases by state.",
		},
		[]string{"state"}, // 'pending', 'active', 'expired', 'cancelled'
	)

	purchasesExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "package_purchases_expired_total",
			Help: "Total number of purchases transitioned by the expiry sweep.",
		},
	)
)

func IncPurchasesExpired(count int) {
	purchasesExpiredTotal.Add(float64(count))
}

func SetPurchasesTotal(counts map[model.PurchaseState]int) {
	states := []model.PurchaseState{
		model.PurchaseStatePending,
		model.PurchaseStateActive,
		model.PurchaseStateExpired,
		model.PurchaseStateCancelled,
	}
	for _, state := range states {
		if count, ok := counts[state]; ok {
			purchasesTotal.WithLabelValues(string(state)).Set(float64(count))
		}
	}
}
