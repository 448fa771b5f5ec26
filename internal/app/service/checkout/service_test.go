package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/ratelimit"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_client"
	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/config"
	"github.com/fatflowers/masterclass/pkg/types"
)

type fakeGateway struct {
	mu   sync.Mutex
	reqs []*stripe_client.CheckoutSessionRequest
	err  error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req *stripe_client.CheckoutSessionRequest) (*stripe_client.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &stripe_client.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.com/c/pay/cs_test"}, nil
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (*ratelimit.Decision, error) {
	return nil, errors.New("redis: connection refused")
}

type fixture struct {
	svc    *Service
	repo   *repository.Memory
	gw     *fakeGateway
	user   *models.User
	course *models.Course
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{PublicURL: "https://masterclass.dev"},
		RateLimit: config.RateLimitConfig{Limit: 3, Window: time.Minute},
		Stripe:    config.StripeConfig{Currency: "usd", MonthlyPriceID: "price_month", YearlyPriceID: "price_year"},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := ratelimit.NewRedisLimiter(client, cfg.RateLimit.Limit, cfg.RateLimit.Window, zap.NewNop().Sugar())

	repo := repository.NewMemory()
	user := &models.User{ExternalID: "user_ext_1", Email: "ada@example.com", Name: "Ada", StripeCustomerID: "cus_1"}
	require.NoError(t, repo.CreateUser(ctx, user))
	course := &models.Course{Title: "Go in Production", ImageURL: "https://img/go.png", Price: 19.99}
	require.NoError(t, repo.SaveCourse(ctx, course))

	gw := &fakeGateway{}
	return &fixture{
		svc:    NewService(cfg, repo, limiter, gw, zap.NewNop().Sugar()),
		repo:   repo,
		gw:     gw,
		user:   user,
		course: course,
	}
}

func TestCreateCourseCheckout_BuildsPaymentSession(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateCourseCheckout(context.Background(), "user_ext_1", f.course.ID)
	require.NoError(t, err)
	require.Equal(t, "https://checkout.stripe.com/c/pay/cs_test", res.CheckoutURL)

	require.Len(t, f.gw.reqs, 1)
	req := f.gw.reqs[0]
	require.Equal(t, stripe_client.ModePayment, req.Mode)
	require.Equal(t, "cus_1", req.CustomerID)
	require.Equal(t, int64(1999), req.UnitAmount)
	require.Equal(t, "usd", req.Currency)
	require.Equal(t, "https://masterclass.dev/courses/"+f.course.ID+"/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	require.Equal(t, "https://masterclass.dev/courses", req.CancelURL)
	require.Equal(t, map[string]string{
		"userId":         f.user.ID,
		"courseId":       f.course.ID,
		"userName":       "Ada",
		"userEmail":      "ada@example.com",
		"courseTitle":    "Go in Production",
		"courseImageUrl": "https://img/go.png",
	}, req.Metadata)

	// no store writes
	require.Equal(t, 0, f.repo.CountPurchases())
}

func TestCreatePlanCheckout_BuildsSubscriptionSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePlanCheckout(context.Background(), "user_ext_1", types.PlanPeriodYear)
	require.NoError(t, err)

	req := f.gw.reqs[0]
	require.Equal(t, stripe_client.ModeSubscription, req.Mode)
	require.Equal(t, "price_year", req.PriceID)
	require.Equal(t, "https://masterclass.dev/pro/success?session_id={CHECKOUT_SESSION_ID}&year=true", req.SuccessURL)
	require.Equal(t, "https://masterclass.dev/pro", req.CancelURL)
	require.Equal(t, f.user.ID, req.SubscriptionMetadata["userId"])
	require.Equal(t, "year", req.SubscriptionMetadata["planId"])
	require.Empty(t, req.Metadata)
}

func TestCheckout_ErrorTaxonomy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCourseCheckout(ctx, "", f.course.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.svc.CreateCourseCheckout(ctx, "user_ext_unknown", f.course.ID)
	require.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = f.svc.CreateCourseCheckout(ctx, "user_ext_1", "missing-course")
	require.ErrorIs(t, err, apperr.ErrTargetNotFound)

	_, err = f.svc.CreatePlanCheckout(ctx, "user_ext_1", "week")
	require.ErrorIs(t, err, apperr.ErrTargetNotFound)

	require.Empty(t, f.gw.reqs)
}

func TestCreatePlanCheckout_UnconfiguredPrice(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.Stripe.MonthlyPriceID = ""
	_, err := f.svc.CreatePlanCheckout(context.Background(), "user_ext_1", types.PlanPeriodMonth)
	require.ErrorIs(t, err, apperr.ErrTargetNotFound)
}

func TestCreateCourseCheckout_AlreadyOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.CreatePurchaseIfNotExists(ctx, &models.Purchase{UserID: f.user.ID, CourseID: f.course.ID, Amount: 1999, StripePurchaseID: "cs_old"})
	require.NoError(t, err)

	_, err = f.svc.CreateCourseCheckout(ctx, "user_ext_1", f.course.ID)
	require.ErrorIs(t, err, apperr.ErrAlreadyOwned)
	require.Empty(t, f.gw.reqs)
}

func TestCheckout_RateLimitPerKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateCourseCheckout(ctx, "user_ext_1", f.course.ID)
		require.NoError(t, err)
	}
	_, err := f.svc.CreateCourseCheckout(ctx, "user_ext_1", f.course.ID)
	var rl *apperr.RateLimitedError
	require.True(t, errors.As(err, &rl))
	require.Greater(t, rl.ResetSeconds, int64(0))
	require.LessOrEqual(t, rl.ResetSeconds, int64(60))
	require.Len(t, f.gw.reqs, 3)

	// plan checkouts use a separate quota
	_, err = f.svc.CreatePlanCheckout(ctx, "user_ext_1", types.PlanPeriodMonth)
	require.NoError(t, err)
}

func TestCheckout_LimiterAndGatewayFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.gw.err = errors.New("stripe: boom")
	_, err := f.svc.CreateCourseCheckout(ctx, "user_ext_1", f.course.ID)
	require.Error(t, err)

	f.svc.limiter = failingLimiter{}
	_, err = f.svc.CreateCourseCheckout(ctx, "user_ext_1", f.course.ID)
	require.Error(t, err)
	require.Equal(t, 50000, int(apperr.Code(err)))
}
