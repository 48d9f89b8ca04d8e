package model

import "time"

type RenewalUrgency string

const (
	RenewalUrgent   RenewalUrgency = "urgent"
	RenewalUpcoming RenewalUrgency = "upcoming"
)

// RenewalCandidate is an active purchase whose expiry date falls inside the
// renewal window, fully loaded with the advertiser and package name so
// callers never have to re-query.
type RenewalCandidate struct {
	PurchaseID    string         `json:"purchase_id"`
	Advertiser    Advertiser     `json:"advertiser"`
	PackageName   string         `json:"package_name"`
	ExpiryDate    time.Time      `json:"expiry_date"`
	DaysRemaining int            `json:"days_remaining"` // ceil(expiry - now)
	Urgency       RenewalUrgency `json:"urgency"`
}
