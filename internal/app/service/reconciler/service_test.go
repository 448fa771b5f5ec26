package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/access"
	"github.com/fatflowers/masterclass/internal/app/service/eventlog"
	"github.com/fatflowers/masterclass/internal/app/service/notifier"
	"github.com/fatflowers/masterclass/internal/app/service/subscription"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_event"
	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/config"
	"github.com/fatflowers/masterclass/pkg/response"
	"github.com/fatflowers/masterclass/pkg/types"
)

const secret = "whsec_reconciler_test"

type fixture struct {
	svc    *Service
	repo   *repository.Memory
	access *access.Service
	events *eventlog.Service
	notif  *notifier.Service
	mailer *notifier.RecordingMailer
	user   *models.User
	course *models.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop().Sugar()
	repo := repository.NewMemory()
	events := eventlog.New(repo, log)
	subs := subscription.NewService(repo, events, log)
	mailer := &notifier.RecordingMailer{}
	notif := notifier.New(mailer, &config.Config{App: config.AppConfig{PublicURL: "https://masterclass.dev"}}, log)

	user := &models.User{ExternalID: "user_ext_1", Email: "ada@example.com", Name: "Ada", StripeCustomerID: "cus_1"}
	require.NoError(t, repo.CreateUser(ctx, user))
	course := &models.Course{Title: "Go in Production", Price: 19.99}
	require.NoError(t, repo.SaveCourse(ctx, course))

	return &fixture{
		svc:    NewService(stripe_event.NewVerifier(secret), repo, subs, events, notif, log),
		repo:   repo,
		access: access.NewService(repo, subs, log),
		events: events,
		notif:  notif,
		mailer: mailer,
		user:   user,
		course: course,
	}
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, f.events.Flush(context.Background()))
	require.NoError(t, f.notif.Flush(context.Background()))
}

func eventPayload(t *testing.T, id, typ string, created time.Time, object map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        typ,
		"created":     created.Unix(),
		"api_version": "2024-09-30.acacia",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return b
}

func sign(payload []byte) string {
	return stripe_event.SignedHeader(payload, secret, time.Now())
}

func (f *fixture) checkoutObject(sessionID string) map[string]any {
	return map[string]any{
		"id":           sessionID,
		"object":       "checkout.session",
		"mode":         "payment",
		"amount_total": 1999,
		"currency":     "usd",
		"customer":     "cus_1",
		"metadata": map[string]string{
			"userId":      f.user.ID,
			"courseId":    f.course.ID,
			"userEmail":   "ada@example.com",
			"userName":    "Ada",
			"courseTitle": "Go in Production",
		},
	}
}

func (f *fixture) subscriptionObject(status string, withInvoice bool) map[string]any {
	obj := map[string]any{
		"id":                   "sub_1",
		"object":               "subscription",
		"status":               status,
		"customer":             "cus_1",
		"current_period_start": 1767225600,
		"current_period_end":   1769904000,
		"cancel_at_period_end": false,
		"metadata":             map[string]string{"userId": f.user.ID, "planId": "month", "userEmail": "ada@example.com"},
	}
	if withInvoice {
		obj["latest_invoice"] = "in_1"
	}
	return obj
}

func TestCheckoutCompleted_EndToEndGrantsCourseAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.access.Evaluate(ctx, "caller", f.user.ID, f.course.ID)
	require.NoError(t, err)
	require.False(t, before.HasAccess)

	payload := eventPayload(t, "evt_1", stripe_event.TypeCheckoutSessionCompleted, time.Now(), f.checkoutObject("cs_1"))
	out, err := f.svc.HandleEvent(ctx, payload, sign(payload))
	require.NoError(t, err)
	require.False(t, out.Ignored)

	p, err := f.repo.GetPurchase(ctx, f.user.ID, f.course.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1999), p.Amount)
	require.Equal(t, "cs_1", p.StripePurchaseID)

	after, err := f.access.Evaluate(ctx, "caller", f.user.ID, f.course.ID)
	require.NoError(t, err)
	require.Equal(t, &access.Access{HasAccess: true, AccessType: types.AccessTypeCourse}, after)

	f.flush(t)
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "Purchase Confirmed!", sent[0].Subject)
}

func TestCheckoutCompleted_ReplayCreatesOnePurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := eventPayload(t, "evt_1", stripe_event.TypeCheckoutSessionCompleted, time.Now(), f.checkoutObject("cs_1"))
	for i := 0; i < 2; i++ {
		_, err := f.svc.HandleEvent(ctx, payload, sign(payload))
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.repo.CountPurchases())

	f.flush(t)
	// confirmation only for the first delivery
	require.Len(t, f.mailer.Sent(), 1)
	// received + handled per delivery
	require.Len(t, f.repo.WebhookEventLogs(), 4)
}

func TestCheckoutCompleted_MissingMetadataIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	obj := f.checkoutObject("cs_1")
	obj["metadata"] = map[string]string{"userId": f.user.ID}
	payload := eventPayload(t, "evt_1", stripe_event.TypeCheckoutSessionCompleted, time.Now(), obj)

	_, err := f.svc.HandleEvent(context.Background(), payload, sign(payload))
	require.ErrorIs(t, err, apperr.ErrIntegrity)
	require.Equal(t, 0, f.repo.CountPurchases())

	f.flush(t)
	var failed int
	for _, l := range f.repo.WebhookEventLogs() {
		if l.Status == models.WebhookEventLogStatusHandleFailed {
			failed++
		}
	}
	require.Equal(t, 1, failed)
}

func TestCheckoutCompleted_MalformedMetadataIdsAreIntegrityErrors(t *testing.T) {
	f := newFixture(t)
	for i, meta := range []map[string]string{
		{"userId": "abc", "courseId": f.course.ID},
		{"userId": f.user.ID, "courseId": "go-in-production"},
	} {
		obj := f.checkoutObject("cs_bad")
		obj["metadata"] = meta
		payload := eventPayload(t, "evt_bad_"+string(rune('a'+i)), stripe_event.TypeCheckoutSessionCompleted, time.Now(), obj)

		_, err := f.svc.HandleEvent(context.Background(), payload, sign(payload))
		require.ErrorIs(t, err, apperr.ErrIntegrity)
		require.Equal(t, response.APIResponseCodeBadRequest, apperr.Code(err))
	}
	require.Equal(t, 0, f.repo.CountPurchases())
}

func TestCheckoutCompleted_SubscriptionModeIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	obj := f.checkoutObject("cs_sub")
	obj["mode"] = "subscription"
	payload := eventPayload(t, "evt_1", stripe_event.TypeCheckoutSessionCompleted, time.Now(), obj)

	out, err := f.svc.HandleEvent(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	require.True(t, out.Ignored)
	require.Equal(t, 0, f.repo.CountPurchases())
}

func TestSignatureRejection_NoMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := eventPayload(t, "evt_1", stripe_event.TypeCheckoutSessionCompleted, time.Now(), f.checkoutObject("cs_1"))
	header := sign(payload)

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = ' '
	_, err := f.svc.HandleEvent(ctx, tampered, header)
	require.ErrorIs(t, err, apperr.ErrSignatureInvalid)

	_, err = f.svc.HandleEvent(ctx, payload, stripe_event.SignedHeader(payload, "whsec_wrong", time.Now()))
	require.ErrorIs(t, err, apperr.ErrSignatureInvalid)

	_, err = f.svc.HandleEvent(ctx, payload, "")
	require.ErrorIs(t, err, apperr.ErrSignatureInvalid)

	subPayload := eventPayload(t, "evt_2", stripe_event.TypeSubscriptionCreated, time.Now(), f.subscriptionObject("active", true))
	_, err = f.svc.HandleEvent(ctx, subPayload, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, apperr.ErrSignatureInvalid)

	f.flush(t)
	require.Equal(t, 0, f.repo.CountPurchases())
	require.Equal(t, 0, f.repo.CountSubscriptions())
	require.Empty(t, f.repo.WebhookEventLogs())
}

func TestSubscription_IncompleteThenActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := time.Now().Add(-time.Minute)

	p1 := eventPayload(t, "evt_1", stripe_event.TypeSubscriptionCreated, t0, f.subscriptionObject("incomplete", false))
	out, err := f.svc.HandleEvent(ctx, p1, sign(p1))
	require.NoError(t, err)
	require.True(t, out.Ignored)
	require.Equal(t, 0, f.repo.CountSubscriptions())

	p2 := eventPayload(t, "evt_2", stripe_event.TypeSubscriptionUpdated, t0.Add(time.Second), f.subscriptionObject("active", true))
	out, err = f.svc.HandleEvent(ctx, p2, sign(p2))
	require.NoError(t, err)
	require.False(t, out.Ignored)
	require.Equal(t, 1, f.repo.CountSubscriptions())

	sub, err := f.repo.GetSubscriptionByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	require.Equal(t, types.PlanPeriodMonth, sub.PlanType)
	require.Equal(t, int64(1769904000), sub.CurrentPeriodEnd.Unix())

	u, err := f.repo.GetUserByID(ctx, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, u.CurrentSubscriptionID)
	require.Equal(t, sub.ID, *u.CurrentSubscriptionID)

	a, err := f.access.Evaluate(ctx, "caller", f.user.ID, "any-course")
	require.NoError(t, err)
	require.Equal(t, types.AccessTypeSubscription, a.AccessType)

	f.flush(t)
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "Your MasterClass Pro Plan has been updated!", sent[0].Subject)
}

func TestSubscriptionUpdated_ReplayKeepsOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	obj := f.subscriptionObject("active", true)
	obj["cancel_at_period_end"] = true
	payload := eventPayload(t, "evt_1", stripe_event.TypeSubscriptionUpdated, time.Now(), obj)
	for i := 0; i < 2; i++ {
		_, err := f.svc.HandleEvent(ctx, payload, sign(payload))
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.repo.CountSubscriptions())
	sub, err := f.repo.GetSubscriptionByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	require.True(t, sub.CancelAtPeriodEnd)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
}

func TestSubscription_StaleEventSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := time.Now().Add(-time.Hour)

	newer := f.subscriptionObject("active", true)
	newer["cancel_at_period_end"] = true
	p2 := eventPayload(t, "evt_2", stripe_event.TypeSubscriptionUpdated, t0.Add(time.Minute), newer)
	_, err := f.svc.HandleEvent(ctx, p2, sign(p2))
	require.NoError(t, err)

	p1 := eventPayload(t, "evt_1", stripe_event.TypeSubscriptionCreated, t0, f.subscriptionObject("active", true))
	out, err := f.svc.HandleEvent(ctx, p1, sign(p1))
	require.NoError(t, err)
	require.True(t, out.Ignored)

	sub, err := f.repo.GetSubscriptionByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	require.True(t, sub.CancelAtPeriodEnd)
}

func TestSubscription_MissingUserIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	obj := f.subscriptionObject("active", true)
	obj["metadata"] = map[string]string{}
	payload := eventPayload(t, "evt_1", stripe_event.TypeSubscriptionCreated, time.Now(), obj)

	_, err := f.svc.HandleEvent(context.Background(), payload, sign(payload))
	require.ErrorIs(t, err, apperr.ErrIntegrity)
	require.Equal(t, 0, f.repo.CountSubscriptions())
}

func TestSubscription_MalformedUserIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	obj := f.subscriptionObject("active", true)
	obj["metadata"] = map[string]string{"userId": "user_2abc", "planId": "month"}
	payload := eventPayload(t, "evt_1", stripe_event.TypeSubscriptionCreated, time.Now(), obj)

	_, err := f.svc.HandleEvent(context.Background(), payload, sign(payload))
	require.ErrorIs(t, err, apperr.ErrIntegrity)
	require.Equal(t, 0, f.repo.CountSubscriptions())
}

func TestSubscriptionDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := time.Now().Add(-time.Minute)

	created := eventPayload(t, "evt_1", stripe_event.TypeSubscriptionCreated, t0, f.subscriptionObject("active", true))
	_, err := f.svc.HandleEvent(ctx, created, sign(created))
	require.NoError(t, err)

	deleted := eventPayload(t, "evt_2", stripe_event.TypeSubscriptionDeleted, t0.Add(time.Second), f.subscriptionObject("canceled", true))
	out, err := f.svc.HandleEvent(ctx, deleted, sign(deleted))
	require.NoError(t, err)
	require.False(t, out.Ignored)
	require.Equal(t, 0, f.repo.CountSubscriptions())

	u, err := f.repo.GetUserByID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Nil(t, u.CurrentSubscriptionID)

	// redelivery of the deletion is acknowledged
	out, err = f.svc.HandleEvent(ctx, deleted, sign(deleted))
	require.NoError(t, err)
	require.True(t, out.Ignored)
}

func TestUnhandledEventIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	payload := eventPayload(t, "evt_1", "invoice.paid", time.Now(), map[string]any{"id": "in_1", "object": "invoice"})
	out, err := f.svc.HandleEvent(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	require.True(t, out.Ignored)
}

func TestErrorsMapToCodes(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleEvent(context.Background(), []byte(`{}`), "bad")
	require.True(t, errors.Is(err, apperr.ErrSignatureInvalid))
	require.Equal(t, 400, apperr.Code(err).HTTPStatus())
}
