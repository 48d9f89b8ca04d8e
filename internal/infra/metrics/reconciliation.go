package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"advertiser-billing/internal/domain/model"
)

func init() {
	register(
		reconciliationRunsTotal,
		reconciliationDiscrepancies,
	)
}

var (
	reconciliationRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciliation_runs_total",
			Help: "Number of completed reconciliation audit passes.",
		},
	)

	reconciliationDiscrepancies = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reconciliation_discrepancies",
			Help: "Discrepancies found by the last audit pass, by kind.",
		},
		[]string{"kind"}, // 'ORPHAN', 'AMOUNT_MISMATCH'
	)
)

func ObserveReconciliation(findings []model.Discrepancy) {
	reconciliationRunsTotal.Inc()
	counts := map[model.DiscrepancyKind]int{
		model.DiscrepancyOrphan:         0,
		model.DiscrepancyAmountMismatch: 0,
	}
	for _, f := range findings {
		counts[f.Kind]++
	}
	for kind, n := range counts {
		reconciliationDiscrepancies.WithLabelValues(string(kind)).Set(float64(n))
	}
}
