package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"advertiser-billing/internal/domain/model"
)

func init() {
	register(
		renewalCandidates,
		renewalRemindersSent,
	)
}

var (
	renewalCandidates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "renewal_candidates",
			Help: "Purchases inside the renewal window as of the last scan, by urgency.",
		},
		[]string{"urgency"}, // 'urgent', 'upcoming'
	)

	renewalRemindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "renewal_reminders_sent_total",
			Help: "Renewal reminders handed to the notifier.",
		},
	)
)

func SetRenewalCandidates(candidates []*model.RenewalCandidate) {
	counts := map[model.RenewalUrgency]int{
		model.RenewalUrgent:   0,
		model.RenewalUpcoming: 0,
	}
	for _, c := range candidates {
		counts[c.Urgency]++
	}
	for urgency, n := range counts {
		renewalCandidates.WithLabelValues(string(urgency)).Set(float64(n))
	}
}

func AddRemindersSent(count int) {
	renewalRemindersSent.Add(float64(count))
}
