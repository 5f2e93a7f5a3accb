package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BailinYe/Resume-Modifier-sub002/config"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/controller"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/service"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/db"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/middleware"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/router"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/scheduler"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/storage"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/email"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/gdrive"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/openai"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Resume Modifier API", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer redis.Close()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	resetTokenRepo := repository.NewResetTokenRepository(db.GetDB())
	auditRepo := repository.NewAuditEventRepository(db.GetDB())
	resumeRepo := repository.NewResumeRepository(db.GetDB())

	// The fixed-window limiter runs on Redis when available so counters
	// are shared across instances; otherwise on the database.
	var limiter service.RateLimiter
	if cfg.Redis.Enabled {
		limiter = redis.NewFixedWindowLimiter(redis.GetClient())
		logger.Info("Using Redis rate limiter", nil)
	} else {
		limiter = repository.NewRateLimitRepository(db.GetDB())
		logger.Info("Using database rate limiter", nil)
	}

	sender := email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, cfg.Email.AppBaseURL)

	// Services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		cfg.Redis.Enabled,
	)
	resetService := service.NewPasswordResetService(
		db.GetDB(),
		userRepo,
		resetTokenRepo,
		auditRepo,
		limiter,
		sender,
		cfg.PasswordReset,
	)
	resumeService := service.NewResumeService(resumeRepo)
	aiService := service.NewAIService(openAIClient(cfg), resumeRepo, resumeService)
	exportService := service.NewExportService(driveClient(cfg), resumeRepo, resumeService)
	auditService := service.NewAuditService(auditRepo)

	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Controllers
	authController := controller.NewAuthController(authService, resetService)
	resumeController := controller.NewResumeController(resumeService, aiService, exportService)
	uploadController := controller.NewUploadController(s3Storage, resumeService)
	auditController := controller.NewAuditController(auditService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.Redis.Enabled)

	cleanupScheduler := scheduler.NewTokenCleanupScheduler(resetService, cfg.PasswordReset.CleanupInterval)
	if err := cleanupScheduler.Start(); err != nil {
		logger.Fatal("Failed to start token cleanup scheduler", err)
	}
	defer cleanupScheduler.Stop()

	r := router.NewRouter(
		authController,
		resumeController,
		uploadController,
		auditController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...", nil)
}

// openAIClient returns the real client when configured, otherwise a
// stand-in that fails each call with a clear error instead of taking
// the whole process down at boot.
func openAIClient(cfg *config.Config) service.Completer {
	client, err := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		logger.Warn("OpenAI client not configured, parse and score endpoints will fail", map[string]interface{}{
			"error": err.Error(),
		})
		return unconfiguredCompleter{}
	}
	return client
}

func driveClient(cfg *config.Config) service.DriveUploader {
	client, err := gdrive.NewClient(gdrive.Config{
		AccessToken: cfg.GoogleDrive.AccessToken,
		BaseURL:     cfg.GoogleDrive.BaseURL,
		UploadURL:   cfg.GoogleDrive.UploadURL,
		FolderID:    cfg.GoogleDrive.FolderID,
	})
	if err != nil {
		logger.Warn("Google Drive client not configured, export endpoint will fail", map[string]interface{}{
			"error": err.Error(),
		})
		return unconfiguredDrive{}
	}
	return client
}

type unconfiguredCompleter struct{}

func (unconfiguredCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", fmt.Errorf("OpenAI is not configured: %w", openai.ErrInvalidConfig)
}

type unconfiguredDrive struct{}

func (unconfiguredDrive) UploadDocument(ctx context.Context, name, contentType string, content []byte) (*gdrive.File, error) {
	return nil, fmt.Errorf("Google Drive is not configured: %w", gdrive.ErrInvalidConfig)
}
