package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/ratelimit"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_client"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_event"
	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/config"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/metrics"
	"github.com/fatflowers/masterclass/pkg/types"
)

// Gateway creates hosted checkout sessions.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *stripe_client.CheckoutSessionRequest) (*stripe_client.CheckoutSession, error)
}

// Result carries the hosted checkout page the caller is redirected to.
type Result struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

// Service starts checkouts. It never writes to the store; entitlements are
// granted by the webhook reconciler once the gateway confirms payment.
type Service struct {
	cfg     *config.Config
	repo    repository.Repository
	limiter ratelimit.Limiter
	gateway Gateway
	log     *zap.SugaredLogger
}

func NewService(cfg *config.Config, repo repository.Repository, limiter ratelimit.Limiter, gateway Gateway, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, repo: repo, limiter: limiter, gateway: gateway, log: log}
}

// resolveCaller maps the caller to a user and charges one unit of the kind's quota.
func (s *Service) resolveCaller(ctx context.Context, externalID string, kind types.CheckoutKind) (*models.User, error) {
	if externalID == "" {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.repo.GetUserByExternalID(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	key := kind.RateLimitKeyPrefix() + ":" + user.ID
	decision, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("rate limiter unavailable: %w", err)
	}
	if !decision.Allowed {
		metrics.IncCounter(metrics.MetricsRateLimitRejections, kind.RateLimitKeyPrefix())
		logctx.FromCtx(ctx, s.log).Infow("checkout_rate_limited", "user_id", user.ID, "kind", kind, "reset_seconds", decision.ResetSeconds())
		return nil, &apperr.RateLimitedError{ResetSeconds: decision.ResetSeconds()}
	}
	return user, nil
}

// CreateCourseCheckout starts a one-off payment for courseID.
func (s *Service) CreateCourseCheckout(ctx context.Context, externalID, courseID string) (res *Result, err error) {
	defer func() { s.record(types.CheckoutKindCourse, err) }()

	user, err := s.resolveCaller(ctx, externalID, types.CheckoutKindCourse)
	if err != nil {
		return nil, err
	}
	course, err := s.repo.GetCourse(ctx, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: course %s", apperr.ErrTargetNotFound, courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if _, err := s.repo.GetPurchase(ctx, user.ID, course.ID); err == nil {
		return nil, apperr.ErrAlreadyOwned
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check purchase: %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &stripe_client.CheckoutSessionRequest{
		CustomerID:   user.StripeCustomerID,
		Mode:         stripe_client.ModePayment,
		Currency:     s.cfg.Stripe.Currency,
		UnitAmount:   course.UnitAmount(),
		ProductName:  course.Title,
		ProductImage: course.ImageURL,
		SuccessURL:   s.cfg.PublicURL("/courses/" + course.ID + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:    s.cfg.PublicURL("/courses"),
		Metadata: map[string]string{
			stripe_event.MetaUserID:         user.ID,
			stripe_event.MetaCourseID:       course.ID,
			stripe_event.MetaUserName:       user.Name,
			stripe_event.MetaUserEmail:      user.Email,
			stripe_event.MetaCourseTitle:    course.Title,
			stripe_event.MetaCourseImageURL: course.ImageURL,
		},
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("checkout_session_created", "kind", types.CheckoutKindCourse, "user_id", user.ID, "course_id", course.ID, "session_id", session.ID)
	return &Result{CheckoutURL: session.URL, SessionID: session.ID}, nil
}

// CreatePlanCheckout starts a Pro subscription for the given billing period.
func (s *Service) CreatePlanCheckout(ctx context.Context, externalID string, plan types.PlanPeriod) (res *Result, err error) {
	defer func() { s.record(types.CheckoutKindPlan, err) }()

	user, err := s.resolveCaller(ctx, externalID, types.CheckoutKindPlan)
	if err != nil {
		return nil, err
	}
	if !plan.Valid() {
		return nil, fmt.Errorf("%w: unknown plan %q", apperr.ErrTargetNotFound, plan)
	}
	priceID := s.cfg.PlanPriceID(plan)
	if priceID == "" {
		return nil, fmt.Errorf("%w: no price configured for plan %s", apperr.ErrTargetNotFound, plan)
	}

	isYear := strconv.FormatBool(plan == types.PlanPeriodYear)
	session, err := s.gateway.CreateCheckoutSession(ctx, &stripe_client.CheckoutSessionRequest{
		CustomerID: user.StripeCustomerID,
		Mode:       stripe_client.ModeSubscription,
		PriceID:    priceID,
		SuccessURL: s.cfg.PublicURL("/pro/success?session_id={CHECKOUT_SESSION_ID}&year=" + isYear),
		CancelURL:  s.cfg.PublicURL("/pro"),
		SubscriptionMetadata: map[string]string{
			stripe_event.MetaUserID:    user.ID,
			stripe_event.MetaPlanID:    string(plan),
			stripe_event.MetaUserName:  user.Name,
			stripe_event.MetaUserEmail: user.Email,
		},
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("checkout_session_created", "kind", types.CheckoutKindPlan, "user_id", user.ID, "plan", plan, "session_id", session.ID)
	return &Result{CheckoutURL: session.URL, SessionID: session.ID}, nil
}

func (s *Service) record(kind types.CheckoutKind, err error) {
	var rl *apperr.RateLimitedError
	result := "created"
	switch {
	case err == nil:
	case errors.As(err, &rl):
		result = "rate_limited"
	default:
		result = "failed"
	}
	metrics.IncCounter(metrics.MetricsCheckoutSessions, string(kind), result)
}

func provideGateway(c *stripe_client.Client) Gateway { return c }

var Module = fx.Options(
	fx.Provide(NewService, provideGateway),
)
