package api

import (
	"github.com/RishiKendai/overlap/internal/config"
	"github.com/RishiKendai/overlap/internal/plagiarism"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	cfg *config.Config,
	runner Runner,
	comparator *plagiarism.Comparator,
	reports ReportReader,
	status StatusStore,
) *gin.Engine {
	router := gin.New()

	handler := NewHandler(cfg, runner, comparator, reports, status)

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	// Middleware
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/compare", handler.Compute)
		api.POST("/compare/inline", handler.CompareInline)
		api.GET("/reports/:assignmentId", handler.GetReport)
		api.GET("/status/:assignmentId", handler.GetStatus)
	}

	return router
}
