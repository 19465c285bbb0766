package main

import (
	"context"   // Redis ping and shutdown deadline
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/robfig/cron/v3"  // Scheduled jobs
	"github.com/sirupsen/logrus" // Logrus for structured logging

	"invoicing/internal/api"        // HTTP handlers and routes
	"invoicing/internal/cache"      // Redis cache
	"invoicing/internal/config"     // Configuration
	"invoicing/internal/db"         // Database
	"invoicing/internal/mailer"     // Outbound email
	"invoicing/internal/metrics"    // Prometheus collectors
	"invoicing/internal/middleware" // Rate limiting
	"invoicing/internal/service"    // Use cases
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	config.SetupLogging(cfg)   // Setup logger
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}

	// Connect to the database and bring the schema up to date
	gdb, err := db.Connect(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	// Setup Redis client; caching is skipped when REDIS_ADDR is empty
	var c *cache.Cache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		cancel()
		if err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		c = cache.New(rdb, cfg.CacheTTL)
	} else {
		logrus.Warn("REDIS_ADDR not set, dashboard caching disabled")
	}

	m := metrics.New()
	services := service.NewSet(service.Options{
		DB:      gdb,
		Cache:   c,
		Metrics: m,
		Mailer: mailer.New(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.MailTimeout,
		}),
		JWTSecret:   cfg.JWTSecret,
		JWTTTL:      cfg.JWTTTL,
		MailTimeout: cfg.MailTimeout,
	})
	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMin)

	// Background jobs: overdue sweep and limiter housekeeping
	scheduler := cron.New()
	if cfg.OverdueSweepSpec != "" {
		if _, err := scheduler.AddFunc(cfg.OverdueSweepSpec, func() {
			if _, err := services.Sweeper.Run(context.Background(), "cron"); err != nil {
				logrus.WithError(err).Error("Overdue sweep failed")
			}
		}); err != nil {
			logrus.Fatalf("invalid OVERDUE_SWEEP_SPEC %q: %v", cfg.OverdueSweepSpec, err)
		}
	}
	if _, err := scheduler.AddFunc("@every 5m", func() { limiter.Cleanup(time.Now()) }); err != nil {
		logrus.Fatalf("failed to schedule limiter cleanup: %v", err)
	}
	scheduler.Start()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := api.NewRouter(api.RouterConfig{
		Services:       services,
		Metrics:        m,
		JWTSecret:      cfg.JWTSecret,
		LoginLimiter:   limiter,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal, then drain requests and jobs
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	<-scheduler.Stop().Done()
}
