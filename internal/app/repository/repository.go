// Package repository is the entitlement store: users, courses, purchases and
// subscriptions with their external-id lookups.
package repository

import (
	"context"
	"errors"

	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/types"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// PurchaseFilterFields are the columns accepted by ListPurchases filters.
var PurchaseFilterFields = []string{"user_id", "course_id", "currency", "stripe_purchase_id", "created_at", "amount"}

type ListPurchasesRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ListPurchasesResponse struct {
	Items []*models.Purchase `json:"items"`
	Total int64              `json:"total"`
}

// Repository provides the store operations used by the services.
// Lookups return ErrNotFound when no row matches.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetUserByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
	// CreateUser returns ErrAlreadyExists when the external id is taken.
	CreateUser(ctx context.Context, user *models.User) error
	// SetCurrentSubscription points the user at subscriptionID.
	SetCurrentSubscription(ctx context.Context, userID, subscriptionID string) error
	// ClearCurrentSubscription clears the pointer only while it still references subscriptionID.
	ClearCurrentSubscription(ctx context.Context, userID, subscriptionID string) error

	GetCourse(ctx context.Context, id string) (*models.Course, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)
	SaveCourse(ctx context.Context, course *models.Course) error

	// CreatePurchaseIfNotExists inserts keyed by StripePurchaseID and reports whether a row was created.
	CreatePurchaseIfNotExists(ctx context.Context, purchase *models.Purchase) (bool, error)
	GetPurchase(ctx context.Context, userID, courseID string) (*models.Purchase, error)
	ListPurchases(ctx context.Context, req *ListPurchasesRequest) (*ListPurchasesResponse, error)

	GetSubscriptionByID(ctx context.Context, id string) (*models.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	// CreateSubscription returns ErrAlreadyExists when the stripe subscription id is taken.
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, id string) error

	SaveSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error
	// SaveWebhookEventLog inserts or replaces the log row by id.
	SaveWebhookEventLog(ctx context.Context, log *models.WebhookEventLog) error

	// Transaction runs fn against a repository bound to a single store transaction.
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

func normalizeList(req *ListPurchasesRequest) error {
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.Size > 200 {
		req.Size = 200
	}
	if req.From < 0 {
		req.From = 0
	}
	if err := types.ValidateFields(req.Filters, PurchaseFilterFields); err != nil {
		return err
	}
	if req.SortBy != "" {
		return types.ValidateFields([]*types.CommonFilter{{Field: req.SortBy}}, PurchaseFilterFields)
	}
	return nil
}
