package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/lesson-planner-api/internal/middleware"
	"github.com/noah-isme/lesson-planner-api/internal/models"
	"github.com/noah-isme/lesson-planner-api/internal/service"
	"github.com/noah-isme/lesson-planner-api/pkg/config"
	"github.com/noah-isme/lesson-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lesson-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lesson-planner-api/pkg/middleware/requestid"
)

type routeDeps struct {
	metrics  *service.MetricsService
	tokens   *service.TokenVerifier
	planner  *handler.LessonScheduleHandler
	observer *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", deps.observer.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.observer.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(deps.tokens))
	api.GET("/planner/stats", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), deps.observer.Stats)

	if !cfg.Planner.Enabled {
		logr.Info("planner routes disabled")
		return r
	}

	schedules := api.Group("/schedules/:id")
	schedules.Use(internalmiddleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin))
	schedules.POST("/generate", deps.planner.Generate)
	schedules.GET("/events", deps.planner.ListEvents)
	schedules.POST("/events", deps.planner.AddSpecialEvent)
	schedules.DELETE("/events/:eventId", deps.planner.RemoveEvent)
	schedules.GET("/occupancy", deps.planner.Occupancy)
	schedules.POST("/save", deps.planner.Save)
	schedules.GET("/export", deps.planner.Export)

	return r
}
