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
	"go.uber.org/zap"

	"github.com/shareit/service-booking/internal/application"
	"github.com/shareit/service-booking/internal/config"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	"github.com/shareit/service-booking/internal/handler"
	"github.com/shareit/service-booking/internal/repository"
	"github.com/shareit/service-booking/pkg/auth"
	"github.com/shareit/service-booking/pkg/clock"
	"github.com/shareit/service-booking/pkg/database"
	"github.com/shareit/service-booking/pkg/health"
	"github.com/shareit/service-booking/pkg/kafka"
	"github.com/shareit/service-booking/pkg/logger"
	"github.com/shareit/service-booking/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.Duration("start_skew_tolerance", cfg.BookingConfig.StartSkewTolerance),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:            cfg.DBConfig.Host,
		Port:            cfg.DBConfig.Port,
		User:            cfg.DBConfig.User,
		Password:        cfg.DBConfig.Password,
		DBName:          cfg.DBConfig.DBName,
		SSLMode:         cfg.DBConfig.SSLMode,
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Bearer tokens are required only when a secret is configured
	var jwtManager *auth.JWTManager
	if cfg.JWTConfig.Secret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)
	} else {
		log.Warn("no JWT secret configured, trusting " + middleware.UserIDHeader + " header")
	}

	// Initialize Kafka producer
	var producer application.EventProducer
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		producer = kafkaProducer
	} else {
		log.Warn("no Kafka brokers configured, booking events are not published")
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	itemRepo := repository.NewGormItemRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	txManager := repository.NewTxManager(db)

	// State strategies are built once and shared by every request
	clk := clock.Real{}
	strategies := bookingDomain.NewStrategyRegistry(bookingDomain.DefaultStrategies(bookingRepo, clk)...)

	bookingService := application.NewBookingService(
		bookingRepo,
		itemRepo,
		userRepo,
		strategies,
		txManager,
		producer,
		clk,
		cfg.BookingConfig.StartSkewTolerance,
		log,
	)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())

	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler := handler.NewBookingHandler(bookingService)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
