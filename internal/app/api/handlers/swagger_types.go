package handlers

import (
	"github.com/fatflowers/masterclass/internal/app/service/access"
	"github.com/fatflowers/masterclass/internal/app/service/catalog"
	"github.com/fatflowers/masterclass/internal/app/service/checkout"
	"github.com/fatflowers/masterclass/internal/app/service/statistics"
	"github.com/fatflowers/masterclass/pkg/response"
	"github.com/fatflowers/masterclass/pkg/types"
)

// Concrete envelope types for swagger; handlers return response.APIResponse[T].

// RespOK is a generic envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespRateLimited struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    RateLimitedData          `json:"data"`
}

type RespCourseList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []catalog.CourseSummary  `json:"data"`
}

type RespCourseDetail struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    catalog.CourseDetail     `json:"data"`
}

type RespAccess struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    access.Access            `json:"data"`
}

type RespCheckout struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    checkout.Result          `json:"data"`
}

type RespPortal struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    PortalResponse           `json:"data"`
}

type RespSubscription struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    *types.UserSubscriptionInfo `json:"data"`
}

// RespListPurchases wraps ListPurchasesResponse in the standard envelope.
type RespListPurchases struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListPurchasesResponse    `json:"data"`
}

// RespSalesStatistic wraps SalesStatisticResponse in the standard envelope.
type RespSalesStatistic struct {
	Code    response.APIResponseCode          `json:"code"`
	Message string                            `json:"message"`
	Data    statistics.SalesStatisticResponse `json:"data"`
}
