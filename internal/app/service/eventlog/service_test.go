package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/types"
)

func newTestService(t *testing.T) (*Service, *repository.Memory) {
	t.Helper()
	repo := repository.NewMemory()
	return New(repo, zap.NewNop().Sugar()), repo
}

func TestDelivery_ReceivedThenHandled(t *testing.T) {
	s, repo := newTestService(t)
	ctx := logctx.WithTraceID(context.Background(), "trace-1")

	d := s.Received(ctx, types.PaymentProviderStripe, "evt_1", "checkout.session.completed", time.Unix(100, 0), []byte(`{"id":"evt_1"}`))
	d.SetUserID("u1")
	d.Finish(ctx, map[string]any{"purchase_created": true}, false, nil)
	require.NoError(t, s.Flush(context.Background()))

	logs := repo.WebhookEventLogs()
	require.Len(t, logs, 2)
	statuses := map[models.WebhookEventLogStatus]*models.WebhookEventLog{}
	for _, l := range logs {
		statuses[l.Status] = l
		require.Equal(t, "evt_1", l.EventID)
		require.Equal(t, "trace-1", l.TraceID)
		require.Equal(t, "stripe", l.ProviderID)
	}
	require.Contains(t, statuses, models.WebhookEventLogStatusReceived)
	require.Nil(t, statuses[models.WebhookEventLogStatusReceived].UserID)
	handled := statuses[models.WebhookEventLogStatusHandled]
	require.NotNil(t, handled)
	require.Equal(t, "u1", *handled.UserID)

	var res map[string]any
	require.NoError(t, json.Unmarshal(*handled.Result, &res))
	require.Equal(t, true, res["purchase_created"])
}

func TestDelivery_FailedAndIgnored(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	s.Received(ctx, types.PaymentProviderStripe, "evt_2", "x", time.Now(), []byte("not json")).
		Finish(ctx, nil, false, errors.New("db down"))
	s.Received(ctx, types.PaymentProviderClerk, "msg_1", "session.created", time.Now(), []byte(`{}`)).
		Finish(ctx, nil, true, nil)
	require.NoError(t, s.Flush(ctx))

	var failed, ignored int
	for _, l := range repo.WebhookEventLogs() {
		switch l.Status {
		case models.WebhookEventLogStatusHandleFailed:
			failed++
			require.Contains(t, string(*l.Result), "db down")
			require.JSONEq(t, `{"raw":"not json"}`, string(l.Data))
		case models.WebhookEventLogStatusIgnored:
			ignored++
		}
	}
	require.Equal(t, 1, failed)
	require.Equal(t, 1, ignored)
}

func TestSaveSubscriptionChange_SnapshotsAreCopies(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	sub := &models.Subscription{ID: "s1", UserID: "u1", Status: types.SubscriptionStatusActive}
	s.SaveSubscriptionChange(ctx, nil, sub, types.SubscriptionChangeReasonCreated, map[string]any{"event_id": "evt_1"})
	sub.Status = types.SubscriptionStatusCanceled
	s.SaveSubscriptionChange(ctx, sub, nil, types.SubscriptionChangeReasonDeleted, nil)
	require.NoError(t, s.Flush(ctx))

	logs := repo.SubscriptionLogs()
	require.Len(t, logs, 2)
	byReason := map[types.SubscriptionChangeReason]*models.SubscriptionLog{}
	for _, l := range logs {
		byReason[l.Reason] = l
		require.Equal(t, "u1", l.UserID)
	}
	created := byReason[types.SubscriptionChangeReasonCreated]
	require.Nil(t, created.Before.Data())
	require.Equal(t, types.SubscriptionStatusActive, created.After.Data().Status)
	require.Equal(t, "evt_1", created.Extra["event_id"])
	require.Nil(t, byReason[types.SubscriptionChangeReasonDeleted].After.Data())
}

func TestFlush_RespectsContext(t *testing.T) {
	s, _ := newTestService(t)
	s.wg.Add(1)
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
}
