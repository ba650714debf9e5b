// Package bootstrap assembles repositories and services from configuration.
// The API server and the operator CLI share it so both see the same wiring.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admissions-api/internal/extractor"
	"github.com/noah-isme/sma-admissions-api/internal/normalizer"
	"github.com/noah-isme/sma-admissions-api/internal/repository"
	"github.com/noah-isme/sma-admissions-api/internal/service"
	"github.com/noah-isme/sma-admissions-api/pkg/cache"
	"github.com/noah-isme/sma-admissions-api/pkg/config"
	"github.com/noah-isme/sma-admissions-api/pkg/database"
	"github.com/noah-isme/sma-admissions-api/pkg/jobs"
)

// Container holds the long-lived dependencies of one process.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Metrics    *service.MetricsService
	Auth       *service.AuthService
	Inquiries  *service.InquiryService
	PaperForms *service.PaperFormService
	Webhooks   *service.WebhookService
	Imports    *service.ImportService
	Exports    *service.ExportService
	Sync       *service.SheetSyncService
	SyncQueue  *jobs.Queue
}

// New connects to PostgreSQL (and Redis when enabled) and builds every service.
// The sync queue is created but not started.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, runtime sync flag falls back to config", zap.Error(err))
		redisClient = nil
	}

	c, err := Assemble(cfg, db, redisClient, logger)
	if err != nil {
		_ = db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}
	return c, nil
}

// Assemble wires services on top of already-open connections. redisClient may be nil.
func Assemble(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	schools := normalizer.DefaultSchoolNames()
	if path := cfg.Intake.SchoolVariantsFile; path != "" {
		loaded, err := normalizer.LoadSchoolNames(path)
		if err != nil {
			return nil, fmt.Errorf("load school variants: %w", err)
		}
		schools = loaded
		logger.Info("school variant table loaded", zap.String("path", path), zap.Int("entries", schools.Len()))
	}

	metrics := service.NewMetricsService()
	validator := service.NewValidator()
	tx := database.NewTransactor(db)

	inquiryRepo := repository.NewInquiryRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	allocator := service.NewCaseIDAllocator(inquiryRepo)

	var toggle service.SyncToggle = service.NewStaticSyncToggle(cfg.SheetSync.Enabled)
	if redisClient != nil {
		toggle = service.NewRedisSyncToggle(repository.NewFlagRepository(redisClient), cfg.SheetSync.FlagKey, cfg.SheetSync.Enabled, logger)
	}

	mirror := service.NewHTTPMirrorClient(service.MirrorClientOptions{
		URL:     cfg.SheetSync.URL,
		Token:   cfg.SheetSync.Token,
		Timeout: cfg.SheetSync.Timeout,
	})
	worker := service.NewSheetSyncWorker(inquiryRepo, mirror, cfg.SheetSync.Timeout, metrics, logger)
	queue := jobs.NewQueue(service.SheetSyncJobType, worker.Handle, jobs.QueueConfig{
		Workers:    cfg.SheetSync.Workers,
		BufferSize: cfg.SheetSync.BufferSize,
		JobTimeout: cfg.SheetSync.Timeout * 2,
		Logger:     logger,
	})
	syncSvc := service.NewSheetSyncService(inquiryRepo, worker, queue, toggle, metrics, logger, service.SheetSyncConfig{
		SweepBatch: cfg.SheetSync.SweepBatch,
	})

	inquiries := service.NewInquiryService(inquiryRepo, activityRepo, allocator, tx, syncSvc, schools, validator, metrics, logger, service.InquiryServiceConfig{
		DefaultTenant:      cfg.Tenant.DefaultID,
		AllocationAttempts: cfg.Intake.AllocationAttempts,
	})

	ocr := service.NewHTTPOCRClient(service.OCRClientOptions{
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   cfg.OCR.APIKey,
		Timeout:  cfg.OCR.Timeout,
	})
	paperForms := service.NewPaperFormService(ocr, extractor.New(), inquiries, metrics, logger, service.PaperFormConfig{
		MaxUploadBytes: cfg.OCR.MaxUploadBytes,
		MaxDimension:   cfg.OCR.MaxDimension,
	})

	webhooks := service.NewWebhookService(inquiries, logger, service.WebhookConfig{
		CountryCode:   cfg.Webhook.CountryCode,
		DefaultSource: cfg.Webhook.DefaultSource,
	})

	return &Container{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Redis:      redisClient,
		Metrics:    metrics,
		Auth:       service.NewAuthService(logger, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		Inquiries:  inquiries,
		PaperForms: paperForms,
		Webhooks:   webhooks,
		Imports:    service.NewImportService(inquiryRepo, activityRepo, allocator, tx, schools, validator, logger, cfg.Tenant.DefaultID),
		Exports:    service.NewExportService(inquiryRepo, nil, nil, logger, 0),
		Sync:       syncSvc,
		SyncQueue:  queue,
	}, nil
}

// Close releases connections. The queue must already be stopped.
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}
