package types

import "time"

// SubscriptionStatus mirrors the gateway's subscription status. Only active is
// interpreted; every other value is stored as received.
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
)

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonCreated SubscriptionChangeReason = "created"
	SubscriptionChangeReasonUpdated SubscriptionChangeReason = "updated"
	SubscriptionChangeReasonDeleted SubscriptionChangeReason = "deleted"
)

// PlanPeriod selects the Pro plan billing interval.
type PlanPeriod string

const (
	PlanPeriodMonth PlanPeriod = "month"
	PlanPeriodYear  PlanPeriod = "year"
)

func (p PlanPeriod) Valid() bool {
	return p == PlanPeriodMonth || p == PlanPeriodYear
}

// UserSubscriptionInfo is the caller-facing view of the current subscription.
type UserSubscriptionInfo struct {
	Status               SubscriptionStatus `json:"status"`
	PlanType             PlanPeriod         `json:"plan_type"`
	CurrentPeriodStart   time.Time          `json:"current_period_start"`
	CurrentPeriodEnd     time.Time          `json:"current_period_end"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end"`
	StripeSubscriptionID string             `json:"stripe_subscription_id"`
}
