package eventlog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/metrics"
	"github.com/fatflowers/masterclass/pkg/types"
)

// Service persists webhook delivery logs and subscription change logs in the
// background. Writes never fail the caller.
type Service struct {
	repo repository.Repository
	log  *zap.SugaredLogger
	wg   sync.WaitGroup
}

func New(repo repository.Repository, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) async(ctx context.Context, what string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(ctx); err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save %s: %v", what, err)
		}
	}()
}

// SaveWebhookEvent asynchronously persists a webhook log. Nil input is ignored.
func (s *Service) SaveWebhookEvent(ctx context.Context, log *models.WebhookEventLog) {
	if log == nil {
		return
	}
	s.async(ctx, "webhook event log", func(ctx context.Context) error {
		return s.repo.SaveWebhookEventLog(ctx, log)
	})
}

// SaveSubscriptionChange asynchronously records a before/after snapshot.
// Either side may be nil for creation and deletion.
func (s *Service) SaveSubscriptionChange(ctx context.Context, before, after *models.Subscription, reason types.SubscriptionChangeReason, extra map[string]any) {
	var userID string
	switch {
	case after != nil:
		after = lo.ToPtr(*after)
		userID = after.UserID
	case before != nil:
		userID = before.UserID
	}
	if before != nil {
		before = lo.ToPtr(*before)
	}
	if extra == nil {
		extra = map[string]any{}
	}
	log := &models.SubscriptionLog{
		UserID: userID,
		Reason: reason,
		Before: datatypes.NewJSONType(before),
		After:  datatypes.NewJSONType(after),
		Extra:  datatypes.JSONMap(extra),
	}
	s.async(ctx, "subscription log", func(ctx context.Context) error {
		return s.repo.SaveSubscriptionLog(ctx, log)
	})
}

// Flush waits for in-flight writes or until ctx is done.
func (s *Service) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delivery tracks one inbound webhook from receipt to completion.
type Delivery struct {
	svc      *Service
	provider types.PaymentProvider
	start    time.Time
	log      models.WebhookEventLog
}

// Received writes the "received" log for a delivery and returns a handle used to
// record its outcome.
func (s *Service) Received(ctx context.Context, provider types.PaymentProvider, eventID, eventType string, eventTime time.Time, payload []byte) *Delivery {
	d := &Delivery{
		svc:      s,
		provider: provider,
		start:    time.Now(),
		log: models.WebhookEventLog{
			ProviderID: string(provider),
			EventID:    eventID,
			EventType:  eventType,
			TraceID:    logctx.TraceID(ctx),
			EventTime:  eventTime,
			Data:       rawJSON(payload),
		},
	}
	received := d.log
	received.Status = models.WebhookEventLogStatusReceived
	s.SaveWebhookEvent(ctx, &received)
	return d
}

// SetUserID attaches the resolved local user to the following log records.
func (d *Delivery) SetUserID(userID string) {
	if userID != "" {
		d.log.UserID = lo.ToPtr(userID)
	}
}

// Finish writes the outcome record. ignored marks an acknowledged no-op.
func (d *Delivery) Finish(ctx context.Context, result map[string]any, ignored bool, err error) {
	if result == nil {
		result = map[string]any{}
	}
	status := models.WebhookEventLogStatusHandled
	outcome := "handled"
	switch {
	case err != nil:
		status = models.WebhookEventLogStatusHandleFailed
		outcome = "failed"
		result["error"] = err.Error()
	case ignored:
		status = models.WebhookEventLogStatusIgnored
		outcome = "ignored"
	}
	resBytes, _ := json.Marshal(result)
	res := datatypes.JSON(resBytes)

	entry := d.log
	entry.Status = status
	entry.Result = &res
	d.svc.SaveWebhookEvent(ctx, &entry)

	metrics.IncCounter(metrics.MetricsWebhookEvents, string(d.provider), d.log.EventType, outcome)
	metrics.ObserveSince(metrics.MetricsBusinessProcess, d.start, "webhook", string(d.provider))
}

func rawJSON(payload []byte) datatypes.JSON {
	if json.Valid(payload) {
		return datatypes.JSON(payload)
	}
	b, _ := json.Marshal(map[string]string{"raw": string(payload)})
	return datatypes.JSON(b)
}

func registerFlush(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Flush(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerFlush),
)
