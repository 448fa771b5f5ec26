package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/statistics"
	models "github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/response"
)

type PurchaseItem struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CourseID         string    `json:"course_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	StripePurchaseID string    `json:"stripe_purchase_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func toPurchaseItem(m *models.Purchase) *PurchaseItem {
	return &PurchaseItem{
		ID:               m.ID,
		UserID:           m.UserID,
		CourseID:         m.CourseID,
		Amount:           m.Amount,
		Currency:         m.Currency,
		StripePurchaseID: m.StripePurchaseID,
		CreatedAt:        m.CreatedAt,
	}
}

type ListPurchasesResponse struct {
	Items []*PurchaseItem `json:"items"`
	Total int64           `json:"total"`
}

// @Summary      List Purchases (Admin)
// @Description  Retrieves a paginated and filterable list of course purchases.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string  true  "Admin token"
// @Param        request body repository.ListPurchasesRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListPurchases
// @Failure      401  {object}  handlers.RespOK
// @Router       /api/v1/admin/list_purchases [post]
func ApiListPurchases(repo PurchaseLister, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req repository.ListPurchasesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := repo.ListPurchases(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.Purchase, _ int) *PurchaseItem { return toPurchaseItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListPurchasesResponse{Items: items, Total: res.Total}))
	}
}

// @Summary      Get Sales Statistics (Admin)
// @Description  Retrieves daily purchase and subscription statistics.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string  true  "Admin token"
// @Param        request body statistics.SalesStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespSalesStatistic
// @Failure      401  {object}  handlers.RespOK
// @Router       /api/v1/admin/get_sales_statistic [post]
func ApiGetSalesStatistic(stats StatisticsService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.SalesStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := stats.GetSalesStatistic(c.Request.Context(), &req)
		if err != nil {
			writeError(c, log, "get_sales_statistic_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, repo PurchaseLister, stats StatisticsService, log *zap.SugaredLogger) {
	r.POST("/list_purchases", ApiListPurchases(repo, log))
	r.POST("/get_sales_statistic", ApiGetSalesStatistic(stats, log))
}
