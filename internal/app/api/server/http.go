package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/masterclass/docs"
	"github.com/fatflowers/masterclass/internal/app/api/handlers"
	mw "github.com/fatflowers/masterclass/internal/app/api/middleware"
	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/access"
	"github.com/fatflowers/masterclass/internal/app/service/billing"
	"github.com/fatflowers/masterclass/internal/app/service/catalog"
	"github.com/fatflowers/masterclass/internal/app/service/checkout"
	"github.com/fatflowers/masterclass/internal/app/service/identity"
	"github.com/fatflowers/masterclass/internal/app/service/reconciler"
	"github.com/fatflowers/masterclass/internal/app/service/statistics"
	cfgpkg "github.com/fatflowers/masterclass/pkg/config"
	metrics "github.com/fatflowers/masterclass/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

// Routes groups every dependency the route table needs.
type Routes struct {
	fx.In

	Log        *zap.SugaredLogger
	Cfg        *cfgpkg.Config
	Tokens     *mw.TokenVerifier `optional:"true"`
	DB         *gorm.DB          `optional:"true"`
	Redis      *redis.Client     `optional:"true"`
	Repo       repository.Repository
	Checkout   *checkout.Service
	Reconciler *reconciler.Service
	Access     *access.Service
	Identity   *identity.Service
	Billing    *billing.Service
	Catalog    *catalog.Service
	Stats      *statistics.Service
}

func registerRoutes(r *gin.Engine, rt Routes) {
	log, cfg := rt.Log, rt.Cfg

	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			MetricsList: metrics.BusinessMetrics,
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub, readinessChecks(rt))
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Webhooks authenticate by signature, never by session.
	hooks := r.Group("/api/webhooks")
	hooks.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterWebhookRoutes(hooks, rt.Reconciler, rt.Identity, log)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AuthMiddleware(rt.Tokens, log), mw.AccessLogMiddleware())
	handlers.RegisterCourseRoutes(apiV1, rt.Catalog, rt.Access, log)
	handlers.RegisterCheckoutRoutes(apiV1.Group("/checkout"), rt.Checkout, log)
	handlers.RegisterBillingRoutes(apiV1.Group("/billing"), rt.Billing, log)

	admin := apiV1.Group("/admin")
	admin.Use(mw.AdminTokenMiddleware(cfg.Admin.Token))
	handlers.RegisterAdminRoutes(admin, rt.Repo, rt.Stats, log)
}

func readinessChecks(rt Routes) map[string]handlers.ReadinessCheck {
	checks := map[string]handlers.ReadinessCheck{}
	if rt.DB != nil {
		checks["db"] = func(ctx context.Context) error {
			sqlDB, err := rt.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if rt.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return rt.Redis.Ping(ctx).Err() }
	}
	return checks
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Provide(mw.NewTokenVerifier),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
