package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/config"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/database"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/handlers"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/middleware"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/ratelimit"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/repositories"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/scheduler"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/services"
	"github.com/nova-nexus-hub/nexora-forms-backend/pkg/logger"
	"github.com/nova-nexus-hub/nexora-forms-backend/pkg/metrics"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	log.WithField("version", version).Info("Starting NEXORA forms backend")

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("Failed to run database migrations")
	}

	m := metrics.NewMetrics()
	store := repositories.NewPostgresStore(db)
	limiter := ratelimit.NewFingerprintLimiter(cfg.Security.RateLimitMax, cfg.Security.RateLimitWindow, log)

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.Notify.Enabled {
		notifier = services.NewEmailNotifier(cfg.Notify, log)
		log.WithField("smtp_host", cfg.Notify.SMTPHost).Info("Email notifications enabled")
	} else {
		log.Info("Email notifications disabled")
	}

	submissionService := services.NewSubmissionService(store, limiter, notifier, m, log, &cfg.Security)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := submissionService.EnsureTables(startupCtx); err != nil {
		cancel()
		log.WithError(err).Fatal("Failed to ensure form tables")
	}
	cancel()

	cronScheduler := scheduler.NewCronScheduler(limiter, store, m, log)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	formsHandler := handlers.NewFormsHandler(submissionService, log)
	healthHandler := handlers.NewHealthHandler(db, log, version)

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Security())
	router.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	router.Use(middleware.Metrics(m))

	v1 := router.Group("/api/v1")
	{
		forms := v1.Group("/forms")
		{
			forms.POST("/submit",
				middleware.Timeout(cfg.Security.RequestTimeout, log),
				middleware.TokenBucket(middleware.TokenBucketConfig{
					RPS:   cfg.Security.SubmitRPS,
					Burst: cfg.Security.SubmitBurst,
				}),
				formsHandler.Submit,
			)
			forms.GET("/submit", formsHandler.Describe)
		}

		v1.GET("/health", healthHandler.Health)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}
