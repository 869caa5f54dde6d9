package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/crm/backend/internal/application/billing"
	reminderapp "github.com/crm/backend/internal/application/reminder"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/scheduler"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed gorm logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	configRepo := persistence.NewGormReminderConfigRepository(db.DB)
	logRepo := persistence.NewGormReminderLogRepository(db.DB)

	// Outbound email; nil transport records reminders as LOGGED
	transport := notification.NewTransportFromConfig(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)

	// Application services
	lifecycleService := billingapp.NewLifecycleService(invoiceRepo, auditRepo, log)
	dispatchService := reminderapp.NewDispatchService(invoiceRepo, configRepo, logRepo, transport, lifecycleService, log)
	configService := reminderapp.NewConfigService(configRepo, logRepo, log)

	// Cron jobs, optionally serialized across instances via a Redis lock
	var locker scheduler.JobLocker
	var redisClient *redis.Client
	if cfg.Scheduler.LockEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		locker = scheduler.NewRedisLocker(redisClient, cfg.Scheduler.LockTTL, log)
	}

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()

	cronScheduler := scheduler.NewCronScheduler(cfg.Scheduler, lifecycleService, dispatchService, locker, log)
	if cfg.Scheduler.Enabled {
		if err := cronScheduler.Start(schedulerCtx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	} else {
		log.Info("Scheduler disabled by configuration")
	}

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	router.NewRouter(engine).
		Register(handler.NewReminderHandler(dispatchService, configService)).
		Register(handler.NewSystemHandler(db)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cancelScheduler()
	if err := cronScheduler.Stop(ctx); err != nil {
		log.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
