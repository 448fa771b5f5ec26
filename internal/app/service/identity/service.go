package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/eventlog"
	"github.com/fatflowers/masterclass/internal/app/service/notifier"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/internal/platform/clerk/clerk_webhook"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_client"
	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/types"
)

// Gateway creates payment gateway customers.
type Gateway interface {
	CreateCustomer(ctx context.Context, req *stripe_client.CustomerRequest) (string, error)
}

// Service provisions local users from identity provider events.
type Service struct {
	verifier *clerk_webhook.Verifier
	repo     repository.Repository
	gateway  Gateway
	events   *eventlog.Service
	notifier *notifier.Service
	log      *zap.SugaredLogger
}

func NewService(verifier *clerk_webhook.Verifier, repo repository.Repository, gateway Gateway, events *eventlog.Service, n *notifier.Service, log *zap.SugaredLogger) *Service {
	return &Service{verifier: verifier, repo: repo, gateway: gateway, events: events, notifier: n, log: log}
}

// HandleEvent verifies an identity provider delivery and applies it. Header and
// signature problems wrap apperr.ErrMissingHeaders or apperr.ErrSignatureInvalid.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, headers http.Header) error {
	if s.verifier == nil {
		return fmt.Errorf("%w: clerk webhook secret not configured", apperr.ErrSignatureInvalid)
	}
	evt, err := s.verifier.Verify(payload, headers)
	switch {
	case errors.Is(err, clerk_webhook.ErrMissingHeaders):
		return fmt.Errorf("%w: %v", apperr.ErrMissingHeaders, err)
	case errors.Is(err, clerk_webhook.ErrInvalidSignature):
		logctx.FromCtx(ctx, s.log).Warnw("webhook_clerk_signature_invalid", "err", err)
		return fmt.Errorf("%w: %v", apperr.ErrSignatureInvalid, err)
	case err != nil:
		return err
	}

	msgID := headers.Get(clerk_webhook.HeaderID)
	lg := logctx.FromCtx(ctx, s.log).With("svix_id", msgID, "event_type", evt.Type)
	lg.Infow("webhook_clerk_received")
	delivery := s.events.Received(ctx, types.PaymentProviderClerk, msgID, evt.Type, deliveryTime(headers), payload)

	var (
		detail  string
		ignored bool
	)
	switch evt.Type {
	case clerk_webhook.TypeUserCreated:
		var user *models.User
		user, detail, err = s.bootstrapUser(ctx, evt)
		if user != nil {
			delivery.SetUserID(user.ID)
		}
	default:
		ignored = true
		detail = "unhandled event type"
	}

	delivery.Finish(ctx, map[string]any{"detail": detail}, ignored, err)
	if err != nil {
		lg.Errorw("webhook_clerk_failed", "err", err)
		return err
	}
	lg.Infow("webhook_clerk_handled", "detail", detail)
	return nil
}

func (s *Service) bootstrapUser(ctx context.Context, evt *clerk_webhook.Event) (*models.User, string, error) {
	data, err := evt.DecodeUser()
	if err != nil {
		return nil, "", err
	}

	existing, err := s.repo.GetUserByExternalID(ctx, data.ID)
	if err == nil {
		return existing, "user already exists", nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	email, name := data.PrimaryEmail(), data.FullName()
	customerID, err := s.gateway.CreateCustomer(ctx, &stripe_client.CustomerRequest{
		Email:    email,
		Name:     name,
		Metadata: map[string]string{"clerkId": data.ID},
	})
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ExternalID:       data.ID,
		Email:            email,
		Name:             name,
		StripeCustomerID: customerID,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			// a concurrent delivery won; its customer is the one kept
			logctx.FromCtx(ctx, s.log).Warnw("user created concurrently, orphaned customer", "external_id", data.ID, "stripe_customer_id", customerID)
			existing, lookupErr := s.repo.GetUserByExternalID(ctx, data.ID)
			if lookupErr != nil {
				return nil, "", fmt.Errorf("failed to load concurrently created user: %w", lookupErr)
			}
			return existing, "user already exists", nil
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("user_bootstrapped", "user_id", user.ID, "external_id", user.ExternalID, "stripe_customer_id", customerID)
	s.notifier.Welcome(ctx, email, name)
	return user, "user created", nil
}

func deliveryTime(h http.Header) time.Time {
	if sec, err := strconv.ParseInt(h.Get(clerk_webhook.HeaderTimestamp), 10, 64); err == nil {
		return time.Unix(sec, 0).UTC()
	}
	return time.Now().UTC()
}

func provideGateway(c *stripe_client.Client) Gateway { return c }

var Module = fx.Options(
	fx.Provide(NewService, provideGateway),
)
