package notifications

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/Domenick1991/campushub/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultInboxLimit = 20
	publishAttempts   = 3
)

type NotificationUseCase interface {
	Notify(ctx context.Context, userID int64, subject, body string) error
	Inbox(ctx context.Context, userID int64, limit int) (*Inbox, error)
	MarkSeen(ctx context.Context, userID int64) error
	MarkDelivered(ctx context.Context, notificationID int64) error
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

type Inbox struct {
	Items    []domain.Notification
	Total    int
	NewCount int
}

type NotificationService struct {
	repo     repository.NotificationRepository
	users    repository.UserRepository
	producer Producer
	topic    string
	now      func() time.Time
	logger   *zap.Logger
}

// NewNotificationService queues e-mail on topic when producer is set.
// Without one, notifications are stored as already sent.
func NewNotificationService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	producer Producer,
	topic string,
	logger *zap.Logger,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:     repo,
		users:    users,
		producer: producer,
		topic:    topic,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *NotificationService) Notify(ctx context.Context, userID int64, subject, body string) error {
	if userID == 0 {
		return nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("notification for unknown user", zap.Int64("user_id", userID))
			return nil
		}
		return err
	}

	queued := s.producer != nil && s.topic != ""
	n := &domain.Notification{
		UserID:  user.ID,
		Channel: "email",
		Subject: subject,
		Body:    body,
		Status:  domain.NotificationStatusSent,
	}
	if queued {
		n.Status = domain.NotificationStatusPending
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.logger.Info("notification stored",
		zap.Int64("notification_id", n.ID), zap.Int64("user_id", user.ID), zap.String("subject", subject))

	if !queued {
		return nil
	}
	event := kafka.NotificationEvent{
		NotificationID: n.ID,
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Subject:        subject,
		Body:           body,
		CreatedAt:      n.CreatedAt,
	}
	// The row stays pending if every attempt fails.
	if err := s.producer.PublishWithRetry(ctx, s.topic, strconv.FormatInt(user.ID, 10), event, publishAttempts); err != nil {
		s.logger.Warn("failed to publish notification", zap.Int64("notification_id", n.ID), zap.Error(err))
	}
	return nil
}

// Inbox lists recent notifications and how many arrived since the last visit.
func (s *NotificationService) Inbox(ctx context.Context, userID int64, limit int) (*Inbox, error) {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	items, total, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	seen, err := s.users.NotificationsSeenAt(ctx, userID)
	if err != nil {
		return nil, err
	}
	fresh, err := s.repo.CountSince(ctx, userID, seen)
	if err != nil {
		return nil, err
	}
	return &Inbox{Items: items, Total: total, NewCount: fresh}, nil
}

func (s *NotificationService) MarkSeen(ctx context.Context, userID int64) error {
	return s.users.MarkNotificationsSeen(ctx, userID, s.now().UTC())
}

func (s *NotificationService) MarkDelivered(ctx context.Context, notificationID int64) error {
	if notificationID == 0 {
		return nil
	}
	return s.repo.MarkSent(ctx, notificationID)
}

var _ NotificationUseCase = (*NotificationService)(nil)
