package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	cfgpkg "github.com/fatflowers/masterclass/pkg/config"
)

func TestRegisterRoutes_RouteTable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newEngine()
	registerRoutes(r, Routes{
		Log:  zap.NewNop().Sugar(),
		Cfg:  &cfgpkg.Config{Admin: cfgpkg.AdminConfig{Token: "t"}},
		Repo: repository.NewMemory(),
	})

	got := lo.Map(r.Routes(), func(ri gin.RouteInfo, _ int) string { return ri.Method + " " + ri.Path })
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"POST /api/webhooks/stripe",
		"POST /api/webhooks/clerk",
		"GET /api/v1/courses",
		"GET /api/v1/courses/:courseId",
		"GET /api/v1/courses/:courseId/access",
		"POST /api/v1/access",
		"POST /api/v1/checkout/course",
		"POST /api/v1/checkout/plan",
		"POST /api/v1/billing/portal",
		"GET /api/v1/billing/subscription",
		"POST /api/v1/admin/list_purchases",
		"POST /api/v1/admin/get_sales_statistic",
	} {
		require.Contains(t, got, want)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/list_purchases", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestReadinessChecks_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checks := readinessChecks(Routes{Redis: client})
	require.Len(t, checks, 1)
	require.NoError(t, checks["redis"](context.Background()))

	mr.Close()
	require.Error(t, checks["redis"](context.Background()))
}
