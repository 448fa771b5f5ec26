package models

import "time"

// User links an identity-provider account to its payment-gateway customer.
type User struct {
	ID string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	// ExternalID is the identity provider's subject id.
	ExternalID string `gorm:"column:external_id;type:varchar(128);not null;uniqueIndex" json:"external_id"`
	Email      string `gorm:"column:email;type:varchar(320);not null" json:"email"`
	Name       string `gorm:"column:name;type:varchar(256)" json:"name"`
	// StripeCustomerID is set once at bootstrap and never changed.
	StripeCustomerID string `gorm:"column:stripe_customer_id;type:varchar(128);uniqueIndex" json:"stripe_customer_id"`
	// CurrentSubscriptionID is written only by the webhook reconciler.
	CurrentSubscriptionID *string   `gorm:"column:current_subscription_id;type:uuid;default:null" json:"current_subscription_id"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
