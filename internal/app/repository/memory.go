package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/tool"
	"github.com/fatflowers/masterclass/pkg/types"
)

// Memory is an in-process Repository used by tests and local tooling.
// Rows are copied on the way in and out so callers never share state.
type Memory struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	courses       map[string]*models.Course
	purchases     map[string]*models.Purchase
	subscriptions map[string]*models.Subscription
	subLogs       []*models.SubscriptionLog
	eventLogs     map[string]*models.WebhookEventLog
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]*models.User),
		courses:       make(map[string]*models.Course),
		purchases:     make(map[string]*models.Purchase),
		subscriptions: make(map[string]*models.Subscription),
		eventLogs:     make(map[string]*models.WebhookEventLog),
	}
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return copyOf(u), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) findUser(match func(*models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return copyOf(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.ExternalID == externalID })
}

func (m *Memory) GetUserByStripeCustomerID(_ context.Context, customerID string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return customerID != "" && u.StripeCustomerID == customerID })
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ExternalID == user.ExternalID {
			return fmt.Errorf("%w: external_id %s", ErrAlreadyExists, user.ExternalID)
		}
		if user.StripeCustomerID != "" && u.StripeCustomerID == user.StripeCustomerID {
			return fmt.Errorf("%w: stripe_customer_id %s", ErrAlreadyExists, user.StripeCustomerID)
		}
	}
	if user.ID == "" {
		user.ID = tool.GenerateUUIDV7()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = copyOf(user)
	return nil
}

func (m *Memory) SetCurrentSubscription(_ context.Context, userID, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	id := subscriptionID
	u.CurrentSubscriptionID = &id
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) ClearCurrentSubscription(_ context.Context, userID, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	if u.CurrentSubscriptionID != nil && *u.CurrentSubscriptionID == subscriptionID {
		u.CurrentSubscriptionID = nil
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (m *Memory) GetCourse(_ context.Context, id string) (*models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.courses[id]; ok {
		return copyOf(c), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) ListCourses(_ context.Context) ([]*models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, copyOf(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SaveCourse(_ context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if course.ID == "" {
		course.ID = tool.GenerateUUIDV7()
	}
	now := time.Now()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	m.courses[course.ID] = copyOf(course)
	return nil
}

func (m *Memory) CreatePurchaseIfNotExists(_ context.Context, purchase *models.Purchase) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.purchases {
		if p.StripePurchaseID == purchase.StripePurchaseID {
			return false, nil
		}
	}
	if purchase.ID == "" {
		purchase.ID = tool.GenerateUUIDV7()
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now()
	}
	m.purchases[purchase.ID] = copyOf(purchase)
	return true, nil
}

func (m *Memory) GetPurchase(_ context.Context, userID, courseID string) (*models.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.purchases {
		if p.UserID == userID && p.CourseID == courseID {
			return copyOf(p), nil
		}
	}
	return nil, ErrNotFound
}

// ListPurchases supports eq and in filters on string columns; other operators are rejected.
func (m *Memory) ListPurchases(_ context.Context, req *ListPurchasesRequest) (*ListPurchasesResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := normalizeList(req); err != nil {
		return nil, err
	}

	m.mu.RLock()
	rows := make([]*models.Purchase, 0, len(m.purchases))
	for _, p := range m.purchases {
		ok, err := matchPurchase(p, req.Filters)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		if ok {
			rows = append(rows, copyOf(p))
		}
	}
	m.mu.RUnlock()

	asc := req.SortOrder == "asc"
	sort.Slice(rows, func(i, j int) bool {
		if asc {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	total := int64(len(rows))
	if req.From >= len(rows) {
		return &ListPurchasesResponse{Items: []*models.Purchase{}, Total: total}, nil
	}
	end := min(req.From+req.Size, len(rows))
	return &ListPurchasesResponse{Items: rows[req.From:end], Total: total}, nil
}

func purchaseColumn(p *models.Purchase, field string) (string, bool) {
	switch field {
	case "user_id":
		return p.UserID, true
	case "course_id":
		return p.CourseID, true
	case "currency":
		return p.Currency, true
	case "stripe_purchase_id":
		return p.StripePurchaseID, true
	default:
		return "", false
	}
}

func matchPurchase(p *models.Purchase, filters []*types.CommonFilter) (bool, error) {
	for _, f := range filters {
		if f == nil || len(f.Values) == 0 {
			continue
		}
		col, ok := purchaseColumn(p, f.Field)
		if !ok {
			return false, fmt.Errorf("unsupported filter field: %s", f.Field)
		}
		switch f.Operator {
		case types.CommonFilterOperatorEq:
			if col != fmt.Sprint(f.Values[0]) {
				return false, nil
			}
		case types.CommonFilterOperatorIn:
			found := false
			for _, v := range f.Values {
				if col == fmt.Sprint(v) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter operator: %s", f.Operator)
		}
	}
	return true, nil
}

func (m *Memory) GetSubscriptionByID(_ context.Context, id string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.subscriptions[id]; ok {
		return copyOf(s), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) GetSubscriptionByStripeID(_ context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.subscriptions {
		if s.StripeSubscriptionID == stripeSubscriptionID {
			return copyOf(s), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateSubscription(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscriptions {
		if s.StripeSubscriptionID == sub.StripeSubscriptionID {
			return fmt.Errorf("%w: stripe_subscription_id %s", ErrAlreadyExists, sub.StripeSubscriptionID)
		}
	}
	if sub.ID == "" {
		sub.ID = tool.GenerateUUIDV7()
	}
	now := time.Now()
	sub.CreatedAt, sub.UpdatedAt = now, now
	m.subscriptions[sub.ID] = copyOf(sub)
	return nil
}

func (m *Memory) UpdateSubscription(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[sub.ID]; !ok {
		return ErrNotFound
	}
	sub.UpdatedAt = time.Now()
	m.subscriptions[sub.ID] = copyOf(sub)
	return nil
}

func (m *Memory) DeleteSubscription(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[id]; !ok {
		return ErrNotFound
	}
	delete(m.subscriptions, id)
	return nil
}

func (m *Memory) SaveSubscriptionLog(_ context.Context, log *models.SubscriptionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m.subLogs = append(m.subLogs, copyOf(log))
	return nil
}

func (m *Memory) SaveWebhookEventLog(_ context.Context, log *models.WebhookEventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	now := time.Now()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now
	m.eventLogs[log.ID] = copyOf(log)
	return nil
}

// SubscriptionLogs returns the stored subscription change logs in write order.
func (m *Memory) SubscriptionLogs() []*models.SubscriptionLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.SubscriptionLog, 0, len(m.subLogs))
	for _, l := range m.subLogs {
		out = append(out, copyOf(l))
	}
	return out
}

// WebhookEventLogs returns the stored webhook logs ordered by creation time.
func (m *Memory) WebhookEventLogs() []*models.WebhookEventLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.WebhookEventLog, 0, len(m.eventLogs))
	for _, l := range m.eventLogs {
		out = append(out, copyOf(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Transaction runs fn directly; Memory offers per-call atomicity only.
func (m *Memory) Transaction(_ context.Context, fn func(repo Repository) error) error {
	return fn(m)
}

// CountPurchases returns the number of stored purchases.
func (m *Memory) CountPurchases() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.purchases)
}

// CountSubscriptions returns the number of stored subscriptions.
func (m *Memory) CountSubscriptions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}
