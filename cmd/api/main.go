package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/buspass-vn/buspass-go-api/internal/config"
	"github.com/buspass-vn/buspass-go-api/internal/database"
	"github.com/buspass-vn/buspass-go-api/internal/handler"
	"github.com/buspass-vn/buspass-go-api/internal/middleware"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/repository"
	"github.com/buspass-vn/buspass-go-api/internal/router"
	"github.com/buspass-vn/buspass-go-api/internal/service"
	"github.com/buspass-vn/buspass-go-api/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.PendingCard{},
		&models.StudentProfile{},
		&models.CardStatus{},
		&models.SwipeEvent{},
		&models.Account{},
		&models.Class{},
		&models.ClassMembership{},
		&models.Notification{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validation.New()

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	enrollmentService := service.NewEnrollmentService(db, validate, logger, activityService)
	accountService := service.NewAccountService(db, validate, logger, activityService, cfg.JWTSecret, cfg.TokenTTL)
	classService := service.NewClassService(db, validate, logger, activityService)
	notificationService := service.NewNotificationService(db, redisClient, "buspass", natsConn, validate, logger, activityService)
	swipeService := service.NewSwipeService(db, redisClient, cfg.SummaryCacheTTL, validate, logger)

	serviceCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()
	notificationService.Start(serviceCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AccountHandler:      handler.NewAccountHandler(accountService, logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(enrollmentService, logger),
		ClassHandler:        handler.NewClassHandler(classService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.StreamKeepAlive),
		SwipeHandler:        handler.NewSwipeHandler(swipeService, logger),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
