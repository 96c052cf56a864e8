package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/campushub/api"
	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/auth"
	"github.com/Domenick1991/campushub/internal/bootstrap"
	"github.com/Domenick1991/campushub/internal/cache"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/Domenick1991/campushub/internal/llm"
	"github.com/Domenick1991/campushub/internal/logging"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/Domenick1991/campushub/internal/service/admin"
	"github.com/Domenick1991/campushub/internal/service/booking"
	"github.com/Domenick1991/campushub/internal/service/concierge"
	"github.com/Domenick1991/campushub/internal/service/messaging"
	"github.com/Domenick1991/campushub/internal/service/notifications"
	"github.com/Domenick1991/campushub/internal/service/resources"
	"github.com/Domenick1991/campushub/internal/service/reviews"
	"github.com/Domenick1991/campushub/internal/service/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(config.PathFromEnv())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	// Redis and Kafka are optional; the interface values stay nil without them.
	var (
		searchCache resources.SearchCache
		bookingLock booking.Cache
		limiter     api.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SearchCacheTTL())
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			searchCache, bookingLock, limiter = redisCache, redisCache, redisCache
		}
	}

	var (
		bookingProducer booking.Producer
		notifyProducer  notifications.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := producer.CheckConnection(checkCtx); err != nil {
			logger.Warn("kafka unavailable, notifications stored as sent", zap.Error(err))
		} else {
			bookingProducer, notifyProducer = producer, producer
		}
		cancel()
	}

	model, err := llm.New(ctx, cfg.Concierge, logger)
	if err != nil {
		logger.Fatal("init language model", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pool)
	resourceRepo := repository.NewResourceRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	waitlistRepo := repository.NewWaitlistRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	adminLogRepo := repository.NewAdminLogRepository(pool)

	loc := cfg.Location()

	adminService := admin.NewAdminService(adminLogRepo, userRepo, logger)
	notificationService := notifications.NewNotificationService(
		notificationRepo, userRepo, notifyProducer, cfg.Kafka.NotificationsTopic, logger,
	)
	userService := users.NewUserService(
		userRepo,
		auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour),
		cfg.Auth.AllowedDomains,
		logger,
	)
	resourceService := resources.NewResourceService(
		resourceRepo, bookingRepo, reviewRepo, searchCache, adminService, cfg.Booking.PageSize, logger,
	)
	bookingService := booking.NewBookingService(
		bookingRepo,
		waitlistRepo,
		resourceRepo,
		userRepo,
		bookingLock,
		bookingProducer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.LockTTL(),
		booking.WithNotifier(notificationService),
		booking.WithAdminRecorder(adminService),
		booking.WithLocation(loc),
		booking.WithLogger(logger),
	)
	messagingService := messaging.NewMessagingService(
		messageRepo, userRepo, resourceRepo, notificationService, adminService,
		cfg.Messaging.FeedLimit, cfg.Messaging.MaxContentLength, logger,
	)
	reviewService := reviews.NewReviewService(reviewRepo, bookingRepo, resourceRepo, userRepo, adminService, logger)
	conciergeService := concierge.NewConciergeService(
		resourceRepo, bookingRepo, reviewRepo, model, cfg.Concierge.ContextDir,
		concierge.WithLimits(cfg.Concierge.MaxResources, cfg.Concierge.MaxDocSnippets),
		concierge.WithLocation(loc),
		concierge.WithLogger(logger),
	)

	err = bootstrap.Run(ctx, cfg, bootstrap.Services{
		Users:         userService,
		Resources:     resourceService,
		Bookings:      bookingService,
		Messaging:     messagingService,
		Reviews:       reviewService,
		Concierge:     conciergeService,
		Notifications: notificationService,
		Admin:         adminService,
		RateLimiter:   limiter,
	}, logger)
	if err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
