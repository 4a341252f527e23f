package models

import "time"

// Subscription statuses mirrored from the payment provider.
const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// SubscriptionModel mirrors the payment provider's subscription state for an
// agency. It is written only by the billing webhook.
type SubscriptionModel struct {
	Base
	AgencyID         string     `json:"agency_id"          gorm:"uniqueIndex;not null"`
	CustomerID       string     `json:"customer_id"        gorm:"index"`
	SubscriptionID   string     `json:"subscription_id"    gorm:"index"`
	Status           string     `json:"status"             gorm:"not null"`
	Plan             string     `json:"plan"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

// IsUsable reports whether the subscription grants portal access.
func (s *SubscriptionModel) IsUsable() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionTrialing
}
