package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/go-co-op/gocron/v2"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, event kafka.NotificationEvent) error
}

type DeliveryMarker interface {
	MarkDelivered(ctx context.Context, notificationID int64) error
}

type Sweeper interface {
	CompletePastBookings(ctx context.Context) ([]domain.Booking, error)
	SweepWaitlists(ctx context.Context) (int, error)
}

// NotificationHandler turns queued notifications into e-mail. Failures are
// logged and the message is skipped so one bad address cannot stall the topic.
func NotificationHandler(mailer Mailer, marker DeliveryMarker, logger *zap.Logger) func(context.Context, kafkaGo.Message) error {
	return func(ctx context.Context, msg kafkaGo.Message) error {
		event, err := kafka.DecodeNotification(msg.Value)
		if err != nil {
			logger.Warn("skip malformed notification", zap.Error(err), zap.Int64("offset", msg.Offset))
			return nil
		}
		if err := mailer.Send(ctx, event); err != nil {
			logger.Error("deliver notification",
				zap.Error(err),
				zap.Int64("notification_id", event.NotificationID),
				zap.Int64("user_id", event.UserID))
			return nil
		}
		if event.NotificationID == 0 {
			return nil
		}
		if err := marker.MarkDelivered(ctx, event.NotificationID); err != nil {
			logger.Warn("mark notification sent", zap.Error(err), zap.Int64("notification_id", event.NotificationID))
		}
		return nil
	}
}

// ScheduleSweeps registers the booking completion and waitlist jobs.
func ScheduleSweeps(ctx context.Context, s gocron.Scheduler, cfg config.WorkerConfig, sweeper Sweeper, logger *zap.Logger) error {
	_, err := s.NewJob(
		gocron.DurationJob(time.Duration(cfg.CompletionSweepMinutes)*time.Minute),
		gocron.NewTask(func() { completeBookings(ctx, sweeper, logger) }),
		gocron.WithName("complete-past-bookings"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule completion sweep: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(time.Duration(cfg.WaitlistSweepMinutes)*time.Minute),
		gocron.NewTask(func() { sweepWaitlists(ctx, sweeper, logger) }),
		gocron.WithName("sweep-waitlists"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule waitlist sweep: %w", err)
	}
	return nil
}

func completeBookings(ctx context.Context, sweeper Sweeper, logger *zap.Logger) {
	done, err := sweeper.CompletePastBookings(ctx)
	if err != nil {
		logger.Error("complete past bookings", zap.Error(err))
		return
	}
	if len(done) > 0 {
		logger.Info("bookings completed", zap.Int("count", len(done)))
	}
}

func sweepWaitlists(ctx context.Context, sweeper Sweeper, logger *zap.Logger) {
	n, err := sweeper.SweepWaitlists(ctx)
	if err != nil {
		logger.Error("sweep waitlists", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("waitlist entries processed", zap.Int("count", n))
	}
}
