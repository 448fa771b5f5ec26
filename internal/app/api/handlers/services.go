package handlers

import (
	"context"
	"net/http"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/access"
	"github.com/fatflowers/masterclass/internal/app/service/catalog"
	"github.com/fatflowers/masterclass/internal/app/service/checkout"
	"github.com/fatflowers/masterclass/internal/app/service/reconciler"
	"github.com/fatflowers/masterclass/internal/app/service/statistics"
	"github.com/fatflowers/masterclass/pkg/types"
)

// The interfaces below are the slices of each service the handlers use.

type CheckoutService interface {
	CreateCourseCheckout(ctx context.Context, externalID, courseID string) (*checkout.Result, error)
	CreatePlanCheckout(ctx context.Context, externalID string, plan types.PlanPeriod) (*checkout.Result, error)
}

type AccessService interface {
	Evaluate(ctx context.Context, callerExternalID, userID, courseID string) (*access.Access, error)
	EvaluateForCaller(ctx context.Context, externalID, courseID string) (*access.Access, error)
}

type BillingService interface {
	CreatePortalSession(ctx context.Context, externalID string) (string, error)
	GetSubscription(ctx context.Context, externalID string) (*types.UserSubscriptionInfo, error)
}

type CatalogService interface {
	ListCourses(ctx context.Context) ([]*catalog.CourseSummary, error)
	GetCourse(ctx context.Context, externalID, courseID string) (*catalog.CourseDetail, error)
}

type PaymentEventHandler interface {
	HandleEvent(ctx context.Context, payload []byte, signatureHeader string) (*reconciler.Outcome, error)
}

type IdentityEventHandler interface {
	HandleEvent(ctx context.Context, payload []byte, headers http.Header) error
}

type PurchaseLister interface {
	ListPurchases(ctx context.Context, req *repository.ListPurchasesRequest) (*repository.ListPurchasesResponse, error)
}

type StatisticsService interface {
	GetSalesStatistic(ctx context.Context, request *statistics.SalesStatisticRequest) (*statistics.SalesStatisticResponse, error)
}
