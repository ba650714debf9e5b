package bootstrap

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/sma-admissions-api/internal/handler"
	"github.com/noah-isme/sma-admissions-api/internal/middleware"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/pkg/config"
	"github.com/noah-isme/sma-admissions-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-admissions-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-admissions-api/pkg/middleware/requestid"
)

// NewRouter registers every HTTP route on a fresh gin engine.
func NewRouter(c *Container) *gin.Engine {
	cfg := c.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(c.Metrics))

	metricsHandler := handler.NewMetricsHandler(c.Metrics, c.DB)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := strings.TrimRight(cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	inquiryHandler := handler.NewInquiryHandler(c.Inquiries, c.Exports)
	paperFormHandler := handler.NewPaperFormHandler(c.PaperForms, cfg.OCR.MaxUploadBytes)
	webhookHandler := handler.NewWebhookHandler(c.Webhooks)
	syncHandler := handler.NewSyncHandler(c.Sync)

	jwt := middleware.JWT(c.Auth)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleCounselor)
	admin := middleware.RequireRoles(models.RoleAdmin)

	api.POST("/inquiries", middleware.OptionalJWT(c.Auth), inquiryHandler.Create)

	inquiries := api.Group("/inquiries", jwt)
	inquiries.POST("/paper-form", staff, paperFormHandler.Upload)
	inquiries.GET("", inquiryHandler.List)
	inquiries.GET("/export", admin, inquiryHandler.Export)
	inquiries.GET("/:caseId", inquiryHandler.Get)
	inquiries.PATCH("/:caseId", staff, inquiryHandler.Update)
	inquiries.GET("/:caseId/activity", inquiryHandler.Activity)

	api.POST("/webhooks/inquiries", middleware.SharedSecret(cfg.Webhook.Secret), webhookHandler.Receive)

	sync := api.Group("/sync", jwt, admin)
	sync.POST("/retry", syncHandler.Retry)
	sync.GET("/status", syncHandler.Status)
	sync.PUT("/status", syncHandler.SetStatus)

	api.POST("/cron/sync-retry", middleware.SharedSecret(cfg.Cron.Secret), syncHandler.Retry)

	return r
}
