package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nulzo/provider-hub/internal/server/middleware"
	v1 "github.com/nulzo/provider-hub/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	healthHandler := v1.NewHealthHandler(s.service)
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := s.router.Group("/v1")
	if s.config.RateLimit.RequestsPerSecond > 0 {
		limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
		api.Use(limiter.Middleware())
	}
	{
		providerHandler := v1.NewProviderHandler(s.service)
		modelHandler := v1.NewModelHandler(s.service)

		api.GET("/providers", providerHandler.List)

		provider := api.Group("/providers/:name")
		provider.Use(middleware.SessionKeys())
		{
			provider.GET("", providerHandler.Get)
			provider.PATCH("/settings", providerHandler.UpdateSettings)
			provider.GET("/models", modelHandler.List)
			provider.GET("/handle", modelHandler.Handle)
			provider.POST("/chat", modelHandler.Complete)
			provider.GET("/health", healthHandler.Check)
			provider.GET("/health/latest", healthHandler.Latest)
			provider.GET("/health/history", healthHandler.History)
		}
	}
}
