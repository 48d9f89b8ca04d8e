package notify

import (
	"context"

	"github.com/rs/zerolog"

	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/adapter"
)

// Ensure compile-time conformance
var _ adapter.RenewalNotifier = (*LogNotifier)(nil)

// LogNotifier stands in for the real delivery channel (email/SMS panel
// service). It records every reminder to the log so operations can see what
// would have gone out. Deployments plug their own adapter in its place.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	nlog := logger.With().Str("component", "RenewalNotifier").Logger()
	return &LogNotifier{log: &nlog}
}

func (n *LogNotifier) SendRenewalReminder(_ context.Context, c *model.RenewalCandidate) error {
	n.log.Info().
		Str("purchase_id", c.PurchaseID).
		Str("advertiser_id", c.Advertiser.ID).
		Str("company", c.Advertiser.CompanyName).
		Str("package", c.PackageName).
		Int("days_remaining", c.DaysRemaining).
		Str("urgency", string(c.Urgency)).
		Msg("renewal reminder")
	return nil
}
