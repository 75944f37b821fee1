package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"royalbid/internal/config"
	"royalbid/internal/handlers"
	"royalbid/internal/logging"
	"royalbid/internal/metrics"
	"royalbid/internal/middleware"
	"royalbid/internal/models"
	"royalbid/internal/repositories"
	"royalbid/internal/services"
	"royalbid/pkg/cache"
	"royalbid/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging configuration: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	// --- Database ---
	db, err := openDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	defer sqlDB.Close()

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	if cfg.SeedDemoData {
		if err := seedDemoData(context.Background(), userRepo, productRepo, time.Now().UTC()); err != nil {
			log.WithError(err).Warn("demo data was not seeded")
		} else {
			log.Info("demo data seeded")
		}
	}

	// --- Optional collaborators ---
	var (
		metaCache   services.MetadataCache
		cachePinger handlers.Pinger
		publisher   services.EventPublisher
	)
	if cfg.CacheEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c, err := cache.Open(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "royalbid:",
			TTL:      cfg.FilterCacheTTL,
		})
		cancel()
		if err != nil {
			log.WithError(err).Warn("filter cache disabled")
		} else {
			defer c.Close()
			metaCache, cachePinger = c, c
			log.WithField("addr", cfg.RedisAddr).Info("filter cache enabled")
		}
	}
	if cfg.BrokerEnabled() {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange}, log)
		if err != nil {
			log.WithError(err).Warn("catalog events disabled")
		} else {
			defer mq.Close()
			publisher = mq
			log.WithField("exchange", cfg.RabbitMQExchange).Info("catalog events enabled")
		}
	}

	// --- Services ---
	filters := services.NewFilterMetadata(productRepo, metaCache, log)
	svc := handlers.Services{
		Auth:      services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration, log),
		Catalog:   services.NewCatalogService(productRepo, filters, log),
		Products:  services.NewProductService(productRepo, filters, publisher, log),
		Analytics: services.NewAnalyticsService(productRepo, log),
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	limiter.StartCleanup(time.Minute, stopCleanup)

	app := newApp(cfg, log)
	handlers.NewHealthHandler(db, cachePinger, publisher != nil, log).RegisterRoutes(app)
	handlers.Mount(app, svc, limiter.Handler(), log)

	// --- Start HTTP Server ---
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.AppPort).Info("starting server")
		serverErr <- app.Listen(cfg.AppPort)
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("error during Fiber shutdown")
	}
	log.Info("server gracefully stopped")
	return nil
}

// newApp builds the Fiber app with the global middleware and /metrics.
func newApp(cfg *config.Config, log logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "royalbid",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New()) // Request logger
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))
	app.Use(middleware.Metrics())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	return app
}

func openDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}
