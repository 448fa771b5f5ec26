package reconciler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/eventlog"
	"github.com/fatflowers/masterclass/internal/app/service/notifier"
	"github.com/fatflowers/masterclass/internal/app/service/subscription"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_client"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_event"
	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/metrics"
	"github.com/fatflowers/masterclass/pkg/tool"
	"github.com/fatflowers/masterclass/pkg/types"
)

// Outcome describes how a verified event was applied.
type Outcome struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	// Ignored is set for acknowledged events that changed nothing.
	Ignored bool   `json:"ignored"`
	Detail  string `json:"detail,omitempty"`
}

// Service applies payment gateway events to the entitlement store. Every
// handler is idempotent so redelivered events are safe to apply again.
type Service struct {
	verifier *stripe_event.Verifier
	repo     repository.Repository
	subs     *subscription.Service
	events   *eventlog.Service
	notifier *notifier.Service
	log      *zap.SugaredLogger
}

func NewService(verifier *stripe_event.Verifier, repo repository.Repository, subs *subscription.Service, events *eventlog.Service, n *notifier.Service, log *zap.SugaredLogger) *Service {
	return &Service{verifier: verifier, repo: repo, subs: subs, events: events, notifier: n, log: log}
}

// HandleEvent verifies the raw payload against the signature header and applies it.
// Signature failures wrap apperr.ErrSignatureInvalid and missing metadata wraps
// apperr.ErrIntegrity; any other error is a store failure worth retrying.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) (*Outcome, error) {
	evt, err := s.verifier.ConstructEvent(payload, signatureHeader)
	if err != nil {
		metrics.IncCounter(metrics.MetricsWebhookEvents, string(types.PaymentProviderStripe), "unknown", "invalid_signature")
		logctx.FromCtx(ctx, s.log).Warnw("webhook_stripe_signature_invalid", "err", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrSignatureInvalid, err)
	}

	lg := logctx.FromCtx(ctx, s.log).With("event_id", evt.ID, "event_type", evt.Type)
	lg.Infow("webhook_stripe_received")

	out := &Outcome{EventID: evt.ID, EventType: evt.Type}
	delivery := s.events.Received(ctx, types.PaymentProviderStripe, evt.ID, evt.Type, evt.Created, payload)

	switch evt.Type {
	case stripe_event.TypeCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, evt, out, delivery)
	case stripe_event.TypeSubscriptionCreated, stripe_event.TypeSubscriptionUpdated:
		err = s.handleSubscriptionUpsert(ctx, evt, out, delivery)
	case stripe_event.TypeSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, evt, out, delivery)
	default:
		out.Ignored = true
		out.Detail = "unhandled event type"
	}

	delivery.Finish(ctx, map[string]any{"detail": out.Detail}, out.Ignored, err)
	if err != nil {
		lg.Errorw("webhook_stripe_failed", "err", err)
		return nil, err
	}
	lg.Infow("webhook_stripe_handled", "ignored", out.Ignored, "detail", out.Detail)
	return out, nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, evt *stripe_event.Event, out *Outcome, d *eventlog.Delivery) error {
	session, err := stripe_event.ParseCheckoutSession(evt.Object)
	if err != nil {
		return apperr.Integrity("%v", err)
	}
	if session.Mode == stripe_client.ModeSubscription {
		// the subscription events carry the entitlement
		out.Ignored = true
		out.Detail = "subscription checkout"
		return nil
	}

	userID := session.Metadata[stripe_event.MetaUserID]
	courseID := session.Metadata[stripe_event.MetaCourseID]
	if userID == "" || courseID == "" {
		return apperr.Integrity("checkout session %s missing userId or courseId metadata", session.ID)
	}
	if !tool.IsUUID(userID) || !tool.IsUUID(courseID) {
		return apperr.Integrity("checkout session %s has malformed metadata user %q course %q", session.ID, userID, courseID)
	}
	d.SetUserID(userID)

	created, err := s.repo.CreatePurchaseIfNotExists(ctx, &models.Purchase{
		UserID:           userID,
		CourseID:         courseID,
		Amount:           session.AmountTotal,
		Currency:         session.Currency,
		StripePurchaseID: session.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	if !created {
		out.Detail = "purchase already recorded"
		return nil
	}
	out.Detail = "purchase recorded"

	s.notifier.PurchaseConfirmed(ctx, &notifier.PurchaseConfirmation{
		ToEmail:      session.Metadata[stripe_event.MetaUserEmail],
		CustomerName: session.Metadata[stripe_event.MetaUserName],
		CourseID:     courseID,
		CourseTitle:  session.Metadata[stripe_event.MetaCourseTitle],
		CourseImage:  session.Metadata[stripe_event.MetaCourseImageURL],
		AmountMinor:  session.AmountTotal,
		Currency:     session.Currency,
	})
	return nil
}

// planType prefers the plan chosen at checkout and falls back to the price interval.
func planType(sub *stripe_event.Subscription) types.PlanPeriod {
	if p := types.PlanPeriod(sub.Metadata[stripe_event.MetaPlanID]); p.Valid() {
		return p
	}
	return types.PlanPeriod(sub.Interval)
}

func (s *Service) handleSubscriptionUpsert(ctx context.Context, evt *stripe_event.Event, out *Outcome, d *eventlog.Delivery) error {
	sub, err := stripe_event.ParseSubscription(evt.Object)
	if err != nil {
		return apperr.Integrity("%v", err)
	}
	if types.SubscriptionStatus(sub.Status) != types.SubscriptionStatusActive || !sub.HasInvoice() {
		out.Ignored = true
		out.Detail = fmt.Sprintf("skipped subscription with status %s", sub.Status)
		return nil
	}

	userID := sub.Metadata[stripe_event.MetaUserID]
	if userID == "" {
		return apperr.Integrity("subscription %s for customer %s missing userId metadata", sub.ID, sub.CustomerID)
	}
	d.SetUserID(userID)

	res, err := s.subs.Upsert(ctx, &subscription.UpsertInput{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		Status:               types.SubscriptionStatus(sub.Status),
		PlanType:             planType(sub),
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		EventID:              evt.ID,
		EventType:            evt.Type,
		EventAt:              evt.Created,
	})
	if err != nil {
		return err
	}
	if res.Stale {
		out.Ignored = true
		out.Detail = "stale event"
		return nil
	}
	out.Detail = "subscription upserted"

	s.notifier.ProPlanChanged(ctx, &notifier.ProPlanActivated{
		ToEmail:            sub.Metadata[stripe_event.MetaUserEmail],
		Name:               sub.Metadata[stripe_event.MetaUserName],
		PlanType:           string(res.Subscription.PlanType),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		Created:            evt.Type == stripe_event.TypeSubscriptionCreated,
	})
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, evt *stripe_event.Event, out *Outcome, d *eventlog.Delivery) error {
	sub, err := stripe_event.ParseSubscription(evt.Object)
	if err != nil {
		return apperr.Integrity("%v", err)
	}
	deleted, err := s.subs.Delete(ctx, sub.ID, evt.ID)
	if errors.Is(err, repository.ErrNotFound) {
		logctx.FromCtx(ctx, s.log).Warnw("subscription to delete not found", "stripe_subscription_id", sub.ID)
		out.Ignored = true
		out.Detail = "subscription not found"
		return nil
	}
	if err != nil {
		return err
	}
	d.SetUserID(deleted.UserID)
	out.Detail = "subscription deleted"
	return nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
