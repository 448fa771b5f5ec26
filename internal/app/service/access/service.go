package access

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/subscription"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/types"
)

// Access is the entitlement decision for one user and course.
type Access struct {
	HasAccess  bool             `json:"hasAccess"`
	AccessType types.AccessType `json:"accessType,omitempty"`
}

// Service decides course access. It only reads from the store.
type Service struct {
	repo repository.Repository
	subs *subscription.Service
	log  *zap.SugaredLogger
}

func NewService(repo repository.Repository, subs *subscription.Service, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, subs: subs, log: log}
}

// Evaluate reports whether userID may open courseID. An active current
// subscription grants every course; otherwise a purchase of that course does.
func (s *Service) Evaluate(ctx context.Context, callerExternalID, userID, courseID string) (*Access, error) {
	if callerExternalID == "" {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return s.evaluate(ctx, user, courseID)
}

// EvaluateForCaller resolves the caller's own user and evaluates access for it.
func (s *Service) EvaluateForCaller(ctx context.Context, externalID, courseID string) (*Access, error) {
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
	return s.evaluate(ctx, user, courseID)
}

func (s *Service) evaluate(ctx context.Context, user *models.User, courseID string) (*Access, error) {
	sub, err := s.subs.GetCurrent(ctx, user)
	if err != nil {
		return nil, err
	}
	if sub.Valid() {
		return &Access{HasAccess: true, AccessType: types.AccessTypeSubscription}, nil
	}

	_, err = s.repo.GetPurchase(ctx, user.ID, courseID)
	switch {
	case err == nil:
		return &Access{HasAccess: true, AccessType: types.AccessTypeCourse}, nil
	case errors.Is(err, repository.ErrNotFound):
		logctx.FromCtx(ctx, s.log).Debugw("no access", "user_id", user.ID, "course_id", courseID)
		return &Access{HasAccess: false}, nil
	default:
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
}

var Module = fx.Options(
	fx.Provide(NewService),
)
