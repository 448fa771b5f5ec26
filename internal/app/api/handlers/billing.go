package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/response"
)

type PortalResponse struct {
	URL string `json:"url"`
}

// @Summary      Billing portal
// @Description  Creates a hosted billing portal session for the caller.
// @Tags         Billing
// @Produce      json
// @Success      200  {object}  handlers.RespPortal
// @Failure      404  {object}  handlers.RespOK
// @Failure      500  {object}  handlers.RespOK
// @Router       /api/v1/billing/portal [post]
func ApiBillingPortal(svc BillingService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, err := svc.CreatePortalSession(c.Request.Context(), caller(c))
		if err != nil {
			code := apperr.Code(err)
			if code == response.APIResponseCodeUpstream {
				code = response.APIResponseCodeError
			}
			writeErrorCode(c, log, "billing_portal_failed", err, code)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&PortalResponse{URL: url}))
	}
}

// @Summary      Current subscription
// @Description  Returns the caller's current Pro subscription, or null when there is none.
// @Tags         Billing
// @Produce      json
// @Success      200  {object}  handlers.RespSubscription
// @Failure      401  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/billing/subscription [get]
func ApiCurrentSubscription(svc BillingService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := svc.GetSubscription(c.Request.Context(), caller(c))
		if err != nil {
			writeError(c, log, "get_subscription_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

func RegisterBillingRoutes(r gin.IRouter, svc BillingService, log *zap.SugaredLogger) {
	r.POST("/portal", ApiBillingPortal(svc, log))
	r.GET("/subscription", ApiCurrentSubscription(svc, log))
}
