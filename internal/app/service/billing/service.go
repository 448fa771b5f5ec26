package billing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/subscription"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_client"
	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/config"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/types"
)

// Gateway opens hosted billing portal sessions.
type Gateway interface {
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

type Service struct {
	cfg     *config.Config
	repo    repository.Repository
	subs    *subscription.Service
	gateway Gateway
	log     *zap.SugaredLogger
}

func NewService(cfg *config.Config, repo repository.Repository, subs *subscription.Service, gateway Gateway, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, repo: repo, subs: subs, gateway: gateway, log: log}
}

func (s *Service) caller(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "" {
		return nil, apperr.ErrUserNotFound
	}
	user, err := s.repo.GetUserByExternalID(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// CreatePortalSession returns the hosted portal URL for the caller. Callers
// without a gateway customer are reported as not found.
func (s *Service) CreatePortalSession(ctx context.Context, externalID string) (string, error) {
	user, err := s.caller(ctx, externalID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == "" {
		return "", fmt.Errorf("%w: no customer for user %s", apperr.ErrUserNotFound, user.ID)
	}
	url, err := s.gateway.CreateBillingPortalSession(ctx, user.StripeCustomerID, s.cfg.PublicURL("/billing"))
	if err != nil {
		return "", err
	}
	logctx.FromCtx(ctx, s.log).Infow("billing_portal_session_created", "user_id", user.ID)
	return url, nil
}

// GetSubscription returns the caller's current subscription, or nil when none.
func (s *Service) GetSubscription(ctx context.Context, externalID string) (*types.UserSubscriptionInfo, error) {
	if externalID == "" {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.caller(ctx, externalID)
	if err != nil {
		return nil, err
	}
	sub, err := s.subs.GetCurrent(ctx, user)
	if err != nil {
		return nil, err
	}
	return sub.Info(), nil
}

func provideGateway(c *stripe_client.Client) Gateway { return c }

var Module = fx.Options(
	fx.Provide(NewService, provideGateway),
)
