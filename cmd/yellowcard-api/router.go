package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/handler"
	"github.com/noah-isme/yellowcard-api/internal/middleware"
	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/service"
	"github.com/noah-isme/yellowcard-api/pkg/config"
	"github.com/noah-isme/yellowcard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/yellowcard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/yellowcard-api/pkg/middleware/requestid"
)

type routerDeps struct {
	storage        string
	metrics        *service.MetricsService
	auth           middleware.TokenValidator
	students       *handler.StudentHandler
	yellowCards    *handler.YellowCardHandler
	settings       *handler.SettingsHandler
	notifications  *handler.NotificationHandler
	reports        *handler.ReportHandler
	authHandler    *handler.AuthHandler
	metricsHandler *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.DataSource(deps.storage))

	r.GET("/health", deps.metricsHandler.Health)
	r.GET("/ready", deps.metricsHandler.Ready)
	r.GET("/metrics", deps.metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", deps.authHandler.Login)

	secured := api.Group("")
	adminOnly := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		secured.Use(middleware.JWT(deps.auth))
		adminOnly = append(adminOnly, middleware.RequireRoles(models.RoleAdmin))
	}
	secured.GET("/auth/me", deps.authHandler.Me)
	guarded := func(action, resource string, h gin.HandlerFunc) []gin.HandlerFunc {
		chain := append([]gin.HandlerFunc{}, adminOnly...)
		return append(chain, middleware.Audit(logr, action, resource), h)
	}

	students := secured.Group("/students")
	students.GET("", deps.students.List)
	students.POST("", deps.students.Create)
	students.GET("/:id", deps.students.Get)
	students.GET("/:id/logs", deps.students.Logs)
	students.POST("/:id/yellow-card", deps.yellowCards.Update)
	students.POST("/:id/reset", deps.yellowCards.Reset)
	students.DELETE("/:id", guarded("delete", "student", deps.students.Delete)...)

	settings := secured.Group("/settings")
	settings.GET("/:grade", deps.settings.Emails)
	settings.POST("/:grade/emails", guarded("add_email", "grade_settings", deps.settings.AddEmail)...)
	settings.DELETE("/:grade/emails", guarded("remove_email", "grade_settings", deps.settings.RemoveEmail)...)

	secured.POST("/send-notification", deps.notifications.Send)
	secured.GET("/logs", deps.reports.Logs)
	secured.GET("/reasons", deps.reports.Reasons)

	reports := secured.Group("/reports")
	reports.GET("/weekly", deps.reports.Weekly)
	reports.GET("/weekly/export", deps.reports.Export)

	return r
}
