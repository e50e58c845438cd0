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

	_ "github.com/coachdesk/coachdesk-api/docs" // Swagger docs
	"github.com/coachdesk/coachdesk-api/internal/config"
	"github.com/coachdesk/coachdesk-api/internal/database"
	"github.com/coachdesk/coachdesk-api/internal/handlers"
	"github.com/coachdesk/coachdesk-api/internal/jobs"
	"github.com/coachdesk/coachdesk-api/internal/middleware"
	"github.com/coachdesk/coachdesk-api/internal/repository"
	"github.com/coachdesk/coachdesk-api/internal/services"
	"github.com/coachdesk/coachdesk-api/internal/storage"
	"github.com/coachdesk/coachdesk-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title CoachDesk API
// @version 1.0
// @description REST API for the CoachDesk coaching institute admin panel

// @contact.name API Support

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

	if cfg.ResendAPIKey == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY not set, receipt and reminder emails will only be logged")
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

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(cfg, db, repos, store, worker)

	scheduleJobs(worker, svcs)

	h := handlers.New(cfg, svcs, worker)

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

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		// Public
		v1.GET("/health", h.Health.Health)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// Authenticated
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			protected.POST("/auth/logout", h.Auth.Logout)
			protected.GET("/auth/me", h.Auth.Me)
			protected.POST("/auth/change_password", h.Auth.ChangePassword)

			// Admin only
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", h.User.List)
				admin.POST("/users", h.User.Create)
				admin.GET("/users/:id", h.User.Get)
				admin.DELETE("/users/:id", h.User.Delete)

				admin.DELETE("/students/:id", h.Student.Delete)
				admin.DELETE("/batches/:id", h.Batch.Delete)
				admin.DELETE("/kits/:id", h.Kit.Delete)

				// Fee amounts can only be revised by an admin
				admin.PATCH("/fees/:roll_no", h.Fee.UpdateFees)

				admin.GET("/audit", h.Audit.List)
			}

			// Admin or profile owner
			protected.PUT("/users/:id", h.User.Update)

			// Fee collection (admin and accountant)
			collect := protected.Group("")
			collect.Use(middleware.RequireCollector())
			{
				collect.POST("/fees", h.Fee.Create)
				collect.POST("/fees/:roll_no/installments", h.Fee.RecordInstallment)
				collect.POST("/fees/import", h.Fee.Import)
			}

			// Fee viewing and documents (all staff)
			// Static routes first so "summary" is not matched as :roll_no
			protected.GET("/fees/summary", h.Fee.Summary)
			protected.GET("/fees/overdue", h.Fee.Overdue)
			protected.GET("/fees/export", h.Fee.Export)
			protected.GET("/fees/receipts/:receipt_number/pdf", h.Fee.Receipt)
			protected.GET("/fees", h.Fee.List)
			protected.GET("/fees/:roll_no", h.Fee.Get)
			protected.GET("/fees/:roll_no/statement", h.Fee.Statement)

			// Students
			protected.GET("/students", h.Student.List)
			protected.POST("/students", h.Student.Create)
			protected.GET("/students/:id", h.Student.Get)
			protected.PUT("/students/:id", h.Student.Update)
			protected.POST("/students/:id/photo", h.Student.UploadPhoto)
			protected.GET("/students/:id/photo", h.Student.Photo)
			protected.GET("/students/roll/:roll_no", h.Student.GetByRollNo)
			protected.GET("/students/roll/:roll_no/attendance", h.Student.Attendance)
			protected.GET("/students/roll/:roll_no/test_reports", h.Student.TestReports)

			// Batches
			protected.GET("/batches", h.Batch.List)
			protected.POST("/batches", h.Batch.Create)
			protected.GET("/batches/:id", h.Batch.Get)
			protected.PUT("/batches/:id", h.Batch.Update)
			protected.GET("/batches/:id/attendance", h.Batch.Attendance)
			protected.POST("/batches/:id/attendance", h.Batch.MarkAttendance)

			// Kits
			protected.GET("/kits", h.Kit.List)
			protected.POST("/kits", h.Kit.Create)
			protected.PUT("/kits/:id", h.Kit.Update)
			protected.POST("/kits/:id/issues", h.Kit.Issue)

			// Attendance
			protected.GET("/attendance", h.Attendance.List)
			protected.POST("/attendance", h.Attendance.Mark)

			// Test reports
			protected.GET("/test_reports", h.TestReport.List)
			protected.POST("/test_reports", h.TestReport.Create)
			protected.PUT("/test_reports/:id", h.TestReport.Update)
			protected.DELETE("/test_reports/:id", h.TestReport.Delete)

			// Notifications
			// Static route first so "read_all" is not matched as :id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.POST("/read_all", h.Notification.MarkAllRead)
				notifications.POST("/:id/read", h.Notification.MarkRead)
				notifications.DELETE("/:id", h.Notification.Delete)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Overdue sweep: admin notification plus reminder emails. Runs once at
	// startup so a restarted process does not miss a day.
	worker.ScheduleEveryImmediate(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sweeping overdue fees...")
		return svcs.Fee.SweepOverdueFees(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
