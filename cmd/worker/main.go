package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/cache"
	"github.com/Domenick1991/campushub/internal/email"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/Domenick1991/campushub/internal/logging"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/Domenick1991/campushub/internal/service/booking"
	"github.com/Domenick1991/campushub/internal/service/notifications"
	"github.com/Domenick1991/campushub/internal/worker"
	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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

	var lock booking.Cache
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SearchCacheTTL())
		defer redisCache.Close()
		lock = redisCache
	}

	var producer *kafka.Producer
	var (
		bookingProducer booking.Producer
		notifyProducer  notifications.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		bookingProducer, notifyProducer = producer, producer
	}

	userRepo := repository.NewUserRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	notificationService := notifications.NewNotificationService(
		notificationRepo, userRepo, notifyProducer, cfg.Kafka.NotificationsTopic, logger,
	)
	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		repository.NewWaitlistRepository(pool),
		repository.NewResourceRepository(pool),
		userRepo,
		lock,
		bookingProducer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.LockTTL(),
		booking.WithNotifier(notificationService),
		booking.WithLocation(cfg.Location()),
		booking.WithLogger(logger),
	)

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location()))
	if err != nil {
		logger.Fatal("init scheduler", zap.Error(err))
	}
	if err := worker.ScheduleSweeps(ctx, scheduler, cfg.Worker, bookingService, logger); err != nil {
		logger.Fatal("schedule sweeps", zap.Error(err))
	}
	scheduler.Start()
	logger.Info("worker started",
		zap.Int("completion_sweep_minutes", cfg.Worker.CompletionSweepMinutes),
		zap.Int("waitlist_sweep_minutes", cfg.Worker.WaitlistSweepMinutes))

	g, gctx := errgroup.WithContext(ctx)

	if producer != nil && cfg.Kafka.NotificationsTopic != "" {
		sender, err := email.NewSender(cfg.SMTP, logger)
		if err != nil {
			logger.Fatal("init mail sender", zap.Error(err))
		}
		consumer := kafka.NewConsumer(cfg.Kafka, logger)
		defer consumer.Close()

		g.Go(func() error {
			err := consumer.Consume(gctx, worker.NotificationHandler(sender, notificationService, logger))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Warn("kafka not configured, notification consumer disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped", zap.Error(err))
		return
	}
	logger.Info("worker stopped")
}
