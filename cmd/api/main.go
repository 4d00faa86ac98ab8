package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/glotta/agency-api/docs" // Swagger docs
	"github.com/glotta/agency-api/internal/config"
	"github.com/glotta/agency-api/internal/database"
	"github.com/glotta/agency-api/internal/handlers"
	"github.com/glotta/agency-api/internal/jobs"
	"github.com/glotta/agency-api/internal/middleware"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
	"github.com/glotta/agency-api/internal/services"
	"github.com/glotta/agency-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Glotta Agency API
// @version 1.0
// @description REST API for the Glotta translation agency operations system

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, cfg)

	scheduleJobs(worker, svcs)

	h := handlers.NewHandlers(svcs, worker)

	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Payment lifecycle. Role checks live in the services; routes only
			// require a valid token.
			protected.POST("/projects/:project_id/payments", h.Payment.RecordDirect)
			protected.POST("/projects/:project_id/payments/initiate", h.Payment.Initiate)
			protected.GET("/projects/:project_id/payments", h.Payment.History)
			protected.POST("/projects/:project_id/payments/recalculate", h.Payment.Recalculate)
			protected.GET("/payments/:payment_id", h.Payment.Show)
			protected.DELETE("/payments/:payment_id", h.Payment.Delete)
			protected.POST("/payments/:payment_id/confirm", h.Payment.Confirm)
			protected.POST("/payments/:payment_id/review", h.Payment.Review)

			// Invoices
			protected.GET("/invoices", h.Invoice.Index)
			protected.GET("/invoices/:invoice_id", h.Invoice.Show)
			protected.PUT("/invoices/:invoice_id", h.Invoice.Update)
			protected.POST("/invoices/:invoice_id/void", h.Invoice.Void)
			protected.POST("/projects/:project_id/invoices", h.Invoice.Create)
			protected.GET("/projects/:project_id/invoices", h.Invoice.IndexByProject)

			// Reports and exports
			reports := protected.Group("/reports")
			{
				reports.GET("/receivables", h.Report.Receivables)
				reports.GET("/receivables/csv", h.Report.ReceivablesCSV)
				reports.GET("/receivables/xlsx", h.Report.ReceivablesXLSX)
				reports.GET("/reconciliation", h.Report.Reconciliation)
				reports.GET("/reconciliation/csv", h.Report.ReconciliationCSV)
				reports.GET("/reconciliation/pdf", h.Report.ReconciliationPDF)
			}
			protected.GET("/projects/:project_id/statement", h.Report.ProjectStatement)

			// Notifications (static route first so "read_all" is not matched
			// as :notification_id)
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/read_all", h.Notification.MarkAllAsRead)
				notifications.POST("/:notification_id/read", h.Notification.MarkAsRead)
			}

			// Audits (finance/admin, enforced in the handler)
			protected.GET("/audits", h.Audit.Index)

			// Worker status (ops only)
			protected.GET("/jobs/status", middleware.RequireRole(models.RoleAdmin, models.RoleFinance), h.Health.WorkerStatus)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Flag overdue receivables every hour
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking overdue receivables...")
		return svcs.Payment.NotifyOverdueReceivables(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
