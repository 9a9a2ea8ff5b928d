package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentme-pricing/internal/infra/config"
	"rentme-pricing/internal/infra/obs"
)

type PricingHTTP interface {
	Quote(c *gin.Context)
	PreviewCosts(c *gin.Context)
	Calendar(c *gin.Context)
	Payout(c *gin.Context)
	SetRules(c *gin.Context)
}

type PeriodsHTTP interface {
	List(c *gin.Context)
	Reconcile(c *gin.Context)
	Delete(c *gin.Context)
}

type Handlers struct {
	Pricing PricingHTTP
	Periods PeriodsHTTP
	Metrics http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Pricing != nil {
		api.GET("/listings/:id/quote", h.Pricing.Quote)
		api.GET("/listings/:id/costs/preview", h.Pricing.PreviewCosts)
		api.GET("/listings/:id/price-calendar", h.Pricing.Calendar)
		api.POST("/payouts/split", h.Pricing.Payout)
	}
	host := api.Group("/host/listings/:id")
	if h.Pricing != nil {
		host.PUT("/pricing-rules", h.Pricing.SetRules)
	}
	if h.Periods != nil {
		host.GET("/pricing-periods", h.Periods.List)
		host.POST("/pricing-periods", h.Periods.Reconcile)
		host.DELETE("/pricing-periods/:period_id", h.Periods.Delete)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
