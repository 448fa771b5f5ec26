package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/tool"
	"github.com/fatflowers/masterclass/pkg/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGorm creates a Repository backed by GORM.
func NewGorm(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// translate maps GORM sentinels onto the repository ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	default:
		return err
	}
}

func firstBy[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// GetUserByID returns ErrNotFound for an id that is not a UUID. Id columns are
// uuid typed, so the statement would fail instead of matching nothing; the
// other id lookups follow the same rule.
func (r *gormRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !tool.IsUUID(id) {
		return nil, ErrNotFound
	}
	return firstBy[models.User](ctx, r.db, "id = ?", id)
}

func (r *gormRepository) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return firstBy[models.User](ctx, r.db, "external_id = ?", externalID)
}

func (r *gormRepository) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	return firstBy[models.User](ctx, r.db, "stripe_customer_id = ?", customerID)
}

func (r *gormRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = tool.GenerateUUIDV7()
	}
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *gormRepository) SetCurrentSubscription(ctx context.Context, userID, subscriptionID string) error {
	if !tool.IsUUID(userID) || !tool.IsUUID(subscriptionID) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("current_subscription_id", subscriptionID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) ClearCurrentSubscription(ctx context.Context, userID, subscriptionID string) error {
	if !tool.IsUUID(userID) || !tool.IsUUID(subscriptionID) {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND current_subscription_id = ?", userID, subscriptionID).
		Update("current_subscription_id", gorm.Expr("NULL")).Error)
}

func (r *gormRepository) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	if !tool.IsUUID(id) {
		return nil, ErrNotFound
	}
	return firstBy[models.Course](ctx, r.db, "id = ?", id)
}

func (r *gormRepository) ListCourses(ctx context.Context) ([]*models.Course, error) {
	var rows []*models.Course
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return rows, nil
}

func (r *gormRepository) SaveCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = tool.GenerateUUIDV7()
	}
	return translate(r.db.WithContext(ctx).Save(course).Error)
}

func (r *gormRepository) CreatePurchaseIfNotExists(ctx context.Context, purchase *models.Purchase) (bool, error) {
	if purchase.ID == "" {
		purchase.ID = tool.GenerateUUIDV7()
	}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_purchase_id"}},
		DoNothing: true,
	}).Create(purchase)
	if tx.Error != nil {
		return false, translate(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetPurchase(ctx context.Context, userID, courseID string) (*models.Purchase, error) {
	if !tool.IsUUID(userID) || !tool.IsUUID(courseID) {
		return nil, ErrNotFound
	}
	return firstBy[models.Purchase](ctx, r.db, "user_id = ? AND course_id = ?", userID, courseID)
}

func (r *gormRepository) ListPurchases(ctx context.Context, req *ListPurchasesRequest) (*ListPurchasesResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := normalizeList(req); err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx).Model(&models.Purchase{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}

	var rows []*models.Purchase
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return &ListPurchasesResponse{Items: rows, Total: total}, nil
}

func (r *gormRepository) GetSubscriptionByID(ctx context.Context, id string) (*models.Subscription, error) {
	if !tool.IsUUID(id) {
		return nil, ErrNotFound
	}
	return firstBy[models.Subscription](ctx, r.db, "id = ?", id)
}

func (r *gormRepository) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	return firstBy[models.Subscription](ctx, r.db, "stripe_subscription_id = ?", stripeSubscriptionID)
}

func (r *gormRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = tool.GenerateUUIDV7()
	}
	return translate(r.db.WithContext(ctx).Create(sub).Error)
}

func (r *gormRepository) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	return translate(r.db.WithContext(ctx).Save(sub).Error)
}

func (r *gormRepository) DeleteSubscription(ctx context.Context, id string) error {
	if !tool.IsUUID(id) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Subscription{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) SaveSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error {
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *gormRepository) SaveWebhookEventLog(ctx context.Context, log *models.WebhookEventLog) error {
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	return r.db.WithContext(ctx).Save(log).Error
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
