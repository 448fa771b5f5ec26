package models

import "time"

// Purchase is a permanent ledger entry for a completed one-off course checkout.
type Purchase struct {
	ID       string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID   string `gorm:"column:user_id;type:uuid;not null;index:idx_purchase_user_course,priority:1" json:"user_id"`
	CourseID string `gorm:"column:course_id;type:uuid;not null;index:idx_purchase_user_course,priority:2" json:"course_id"`
	// Amount is in currency minor units.
	Amount   int64  `gorm:"column:amount;not null" json:"amount"`
	Currency string `gorm:"column:currency;type:varchar(8)" json:"currency"`
	// StripePurchaseID is the checkout session id and the idempotence key.
	StripePurchaseID string    `gorm:"column:stripe_purchase_id;type:varchar(255);not null;uniqueIndex" json:"stripe_purchase_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Purchase) TableName() string {
	return "purchase"
}
