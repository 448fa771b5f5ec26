package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/eventlog"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/tool"
	"github.com/fatflowers/masterclass/pkg/types"
)

type Service struct {
	repo   repository.Repository
	events *eventlog.Service
	log    *zap.SugaredLogger
}

func NewService(repo repository.Repository, events *eventlog.Service, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, events: events, log: log}
}

// UpsertInput is the gateway's view of a subscription carried by one event.
type UpsertInput struct {
	UserID               string
	StripeSubscriptionID string
	Status               types.SubscriptionStatus
	PlanType             types.PlanPeriod
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	CancelAtPeriodEnd    bool

	EventID   string
	EventType string
	// EventAt is the gateway creation time of the triggering event.
	EventAt time.Time
}

type UpsertResult struct {
	Subscription *models.Subscription
	Created      bool
	// Stale is set when the event predates the last applied one and was skipped.
	Stale bool
}

// Upsert creates or updates the subscription keyed by its gateway id and points
// the owning user at it. Events older than the last applied one are skipped.
func (s *Service) Upsert(ctx context.Context, in *UpsertInput) (*UpsertResult, error) {
	if in.UserID == "" || in.StripeSubscriptionID == "" {
		return nil, apperr.Integrity("subscription event without user or subscription id")
	}
	if !tool.IsUUID(in.UserID) {
		return nil, apperr.Integrity("subscription %s references malformed user id %q", in.StripeSubscriptionID, in.UserID)
	}

	res, err := s.upsertOnce(ctx, in)
	if errors.Is(err, repository.ErrAlreadyExists) {
		// a concurrent delivery created the row first; apply as an update
		logctx.FromCtx(ctx, s.log).Infow("subscription created concurrently, retrying as update",
			"stripe_subscription_id", in.StripeSubscriptionID)
		res, err = s.upsertOnce(ctx, in)
	}
	if err != nil {
		return nil, err
	}
	if res.Stale {
		return res, nil
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription upserted",
		"user_id", res.Subscription.UserID,
		"stripe_subscription_id", in.StripeSubscriptionID,
		"status", string(in.Status),
		"reason", string(res.reason()))
	return res, nil
}

func (r *UpsertResult) reason() types.SubscriptionChangeReason {
	if r.Created {
		return types.SubscriptionChangeReasonCreated
	}
	return types.SubscriptionChangeReasonUpdated
}

func (s *Service) upsertOnce(ctx context.Context, in *UpsertInput) (*UpsertResult, error) {
	var (
		res    UpsertResult
		before *models.Subscription
	)
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		if _, err := tx.GetUserByID(ctx, in.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.Integrity("user %s referenced by subscription %s does not exist", in.UserID, in.StripeSubscriptionID)
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		original, err := tx.GetSubscriptionByStripeID(ctx, in.StripeSubscriptionID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to load original subscription: %w", err)
		}

		sub := &models.Subscription{}
		if original != nil {
			if original.LastEventAt != nil && in.EventAt.Before(*original.LastEventAt) {
				res.Stale = true
				res.Subscription = original
				return nil
			}
			before = lo.ToPtr(*original)
			// preserve identity and ownership
			*sub = *original
		}
		sub.StripeSubscriptionID = in.StripeSubscriptionID
		if original == nil {
			sub.UserID = in.UserID
		}
		sub.Status = in.Status
		sub.PlanType = in.PlanType
		sub.CurrentPeriodStart = in.CurrentPeriodStart
		sub.CurrentPeriodEnd = in.CurrentPeriodEnd
		sub.CancelAtPeriodEnd = in.CancelAtPeriodEnd
		if !in.EventAt.IsZero() {
			sub.LastEventAt = lo.ToPtr(in.EventAt)
		}

		if original == nil {
			if err := tx.CreateSubscription(ctx, sub); err != nil {
				return fmt.Errorf("failed to create subscription: %w", err)
			}
			res.Created = true
		} else if err := tx.UpdateSubscription(ctx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		if err := tx.SetCurrentSubscription(ctx, sub.UserID, sub.ID); err != nil {
			return fmt.Errorf("failed to set current subscription: %w", err)
		}
		res.Subscription = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Stale {
		s.events.SaveSubscriptionChange(ctx, before, res.Subscription, res.reason(), map[string]any{
			"event_id":   in.EventID,
			"event_type": in.EventType,
		})
	}
	return &res, nil
}

// Delete removes the subscription keyed by its gateway id and clears the owner's
// pointer when it still references it. Returns repository.ErrNotFound when absent.
func (s *Service) Delete(ctx context.Context, stripeSubscriptionID, eventID string) (*models.Subscription, error) {
	var deleted *models.Subscription
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		sub, err := tx.GetSubscriptionByStripeID(ctx, stripeSubscriptionID)
		if err != nil {
			return err
		}
		if err := tx.DeleteSubscription(ctx, sub.ID); err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		if err := tx.ClearCurrentSubscription(ctx, sub.UserID, sub.ID); err != nil {
			return fmt.Errorf("failed to clear current subscription: %w", err)
		}
		deleted = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.SaveSubscriptionChange(ctx, deleted, nil, types.SubscriptionChangeReasonDeleted, map[string]any{
		"event_id": eventID,
	})
	logctx.FromCtx(ctx, s.log).Infow("subscription deleted", "user_id", deleted.UserID, "stripe_subscription_id", stripeSubscriptionID)
	return deleted, nil
}

// GetCurrent returns the subscription the user currently points at, or nil.
func (s *Service) GetCurrent(ctx context.Context, user *models.User) (*models.Subscription, error) {
	if user == nil || user.CurrentSubscriptionID == nil {
		return nil, nil
	}
	sub, err := s.repo.GetSubscriptionByID(ctx, *user.CurrentSubscriptionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, nil
}
