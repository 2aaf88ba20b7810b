package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"sciencefair-registration/ratelimit"
)

// NewRouter wires middleware and routes onto a new gin engine.
func NewRouter(h *APIHandler, limiter ratelimit.Limiter) *gin.Engine {
	cfg := h.Config
	router := gin.New()
	// ClientIP keys the rate limit; forwarded headers only count from these peers.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		h.Logger.Error("invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		RequestID(),
		RequestLogger(h.Logger),
		Metrics(h.Metrics),
		Recovery(h.Logger, cfg.IsDevelopment()),
		secure.New(secure.Config{
			FrameDeny:          true,
			ContentTypeNosniff: true,
			BrowserXssFilter:   true,
			IENoOpen:           true,
			ReferrerPolicy:     "no-referrer",
		}),
		cors.New(cors.Config{
			AllowOrigins:     []string{cfg.FrontendOrigin},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/register", RateLimit(limiter, h.Logger, h.Metrics), h.Register)
		api.GET("/teachers", h.GetTeachers)
		api.GET("/metadata", h.GetMetadata)
	}

	if cfg.IsProduction() {
		router.NoRoute(h.SPA(cfg.PublicDir))
	} else {
		router.NoRoute(h.NotFound)
	}
	return router
}
