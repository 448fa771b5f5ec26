package models

import (
	"time"

	"github.com/fatflowers/masterclass/pkg/types"
)

// Subscription caches the gateway's view of a user's Pro plan.
// Use Valid() to determine whether it grants access.
type Subscription struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	// StripeSubscriptionID is the idempotence and lookup key.
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;type:varchar(255);not null;uniqueIndex" json:"stripe_subscription_id"`
	Status               types.SubscriptionStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	PlanType             types.PlanPeriod         `gorm:"column:plan_type;type:varchar(16)" json:"plan_type"`
	CurrentPeriodStart   time.Time                `gorm:"column:current_period_start" json:"current_period_start"`
	CurrentPeriodEnd     time.Time                `gorm:"column:current_period_end" json:"current_period_end"`
	CancelAtPeriodEnd    bool                     `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`
	// LastEventAt is the creation time of the last gateway event applied to this row.
	LastEventAt *time.Time `gorm:"column:last_event_at;default:null" json:"last_event_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// Valid reports whether the subscription currently grants access.
func (s *Subscription) Valid() bool {
	return s != nil && s.Status == types.SubscriptionStatusActive
}

// Info returns the caller-facing view.
func (s *Subscription) Info() *types.UserSubscriptionInfo {
	if s == nil {
		return nil
	}
	return &types.UserSubscriptionInfo{
		Status:               s.Status,
		PlanType:             s.PlanType,
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
		StripeSubscriptionID: s.StripeSubscriptionID,
	}
}
