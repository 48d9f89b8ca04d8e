package adapter

import (
	"context"

	"advertiser-billing/internal/domain/model"
)

// RenewalNotifier delivers renewal reminders. Delivery (email, SMS, panel
// message) is an external collaborator; this core only records the outcome.
type RenewalNotifier interface {
	SendRenewalReminder(ctx context.Context, candidate *model.RenewalCandidate) error
}
