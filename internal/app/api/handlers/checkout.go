package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/pkg/response"
	"github.com/fatflowers/masterclass/pkg/types"
)

type CourseCheckoutRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

type PlanCheckoutRequest struct {
	Plan types.PlanPeriod `json:"plan" binding:"required,oneof=month year"`
}

// @Summary      Course checkout
// @Description  Starts a hosted checkout for a single course.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body CourseCheckoutRequest true "Course to buy"
// @Success      200  {object}  handlers.RespCheckout
// @Failure      401  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Failure      409  {object}  handlers.RespOK
// @Failure      429  {object}  handlers.RespRateLimited
// @Router       /api/v1/checkout/course [post]
func ApiCourseCheckout(svc CheckoutService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CourseCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.CreateCourseCheckout(c.Request.Context(), caller(c), req.CourseID)
		if err != nil {
			writeError(c, log, "checkout_session_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Pro plan checkout
// @Description  Starts a hosted subscription checkout for the monthly or yearly Pro plan.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body PlanCheckoutRequest true "Plan period"
// @Success      200  {object}  handlers.RespCheckout
// @Failure      401  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Failure      429  {object}  handlers.RespRateLimited
// @Router       /api/v1/checkout/plan [post]
func ApiPlanCheckout(svc CheckoutService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlanCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.CreatePlanCheckout(c.Request.Context(), caller(c), req.Plan)
		if err != nil {
			writeError(c, log, "checkout_session_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterCheckoutRoutes(r gin.IRouter, svc CheckoutService, log *zap.SugaredLogger) {
	r.POST("/course", ApiCourseCheckout(svc, log))
	r.POST("/plan", ApiPlanCheckout(svc, log))
}
