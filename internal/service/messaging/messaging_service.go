package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/Domenick1991/campushub/internal/validate"
	"go.uber.org/zap"
)

const (
	DefaultFeedLimit        = 50
	DefaultMaxContentLength = 2000
)

type MessagingUseCase interface {
	StartThread(ctx context.Context, input StartThreadInput) (*domain.Thread, *FeedItem, error)
	GetThread(ctx context.Context, threadID, viewerID int64) (*domain.Thread, error)
	ListThreads(ctx context.Context, userID int64) ([]domain.Thread, error)
	Feed(ctx context.Context, threadID, viewerID, afterID int64) ([]FeedItem, error)
	Reply(ctx context.Context, threadID, senderID int64, content string) (*FeedItem, error)
	FlagMessage(ctx context.Context, messageID, actorID int64, reason string) error
	HideMessage(ctx context.Context, messageID, adminID int64) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, subject, body string) error
}

type AdminRecorder interface {
	Record(ctx context.Context, adminID int64, action, table, details string) error
}

// FeedItem is the wire form of a message in the thread feed.
type FeedItem struct {
	MessageID  int64     `json:"message_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Timestamp  time.Time `json:"timestamp"`
	Content    string    `json:"content"`
}

func NewFeedItem(m *domain.Message) FeedItem {
	return FeedItem{
		MessageID:  m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Timestamp:  m.Timestamp.UTC(),
		Content:    m.Content,
	}
}

type StartThreadInput struct {
	SenderID    int64
	ResourceID  int64
	RecipientID int64
	Content     string
}

type MessagingService struct {
	messages   repository.MessageRepository
	users      repository.UserRepository
	resources  repository.ResourceRepository
	notifier   Notifier
	audit      AdminRecorder
	feedLimit  int
	maxContent int
	now        func() time.Time
	logger     *zap.Logger
}

func NewMessagingService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	resources repository.ResourceRepository,
	notifier Notifier,
	audit AdminRecorder,
	feedLimit, maxContent int,
	logger *zap.Logger,
) *MessagingService {
	if feedLimit <= 0 {
		feedLimit = DefaultFeedLimit
	}
	if maxContent <= 0 {
		maxContent = DefaultMaxContentLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessagingService{
		messages:   messages,
		users:      users,
		resources:  resources,
		notifier:   notifier,
		audit:      audit,
		feedLimit:  feedLimit,
		maxContent: maxContent,
		now:        time.Now,
		logger:     logger,
	}
}

// StartThread opens (or reuses) the conversation about a resource and posts
// the first message. A zero RecipientID addresses the resource owner.
func (s *MessagingService) StartThread(ctx context.Context, input StartThreadInput) (*domain.Thread, *FeedItem, error) {
	content, err := s.cleanContent(input.Content)
	if err != nil {
		return nil, nil, err
	}
	sender, err := s.activeUser(ctx, input.SenderID)
	if err != nil {
		return nil, nil, err
	}
	resource, err := s.resources.GetByID(ctx, input.ResourceID)
	if err != nil {
		return nil, nil, err
	}
	recipientID := input.RecipientID
	if recipientID == 0 {
		recipientID = resource.OwnerID
	}
	if recipientID == sender.ID {
		return nil, nil, domain.NewValidationError("recipient_id", "you cannot message yourself")
	}
	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		return nil, nil, err
	}

	key := domain.ThreadKey(resource.ID, sender.ID, recipientID)
	thread, err := s.messages.GetThreadByKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		thread = &domain.Thread{
			ThreadKey:     key,
			OwnerID:       recipientID,
			ParticipantID: sender.ID,
			ResourceID:    resource.ID,
			ResourceTitle: resource.Title,
		}
		err = s.messages.CreateThread(ctx, thread)
	}
	if err != nil {
		return nil, nil, err
	}

	item, err := s.post(ctx, thread, sender, content)
	if err != nil {
		return nil, nil, err
	}
	return thread, item, nil
}

func (s *MessagingService) GetThread(ctx context.Context, threadID, viewerID int64) (*domain.Thread, error) {
	thread, err := s.messages.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, thread, viewerID); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *MessagingService) ListThreads(ctx context.Context, userID int64) ([]domain.Thread, error) {
	return s.messages.ListThreadsForUser(ctx, userID)
}

// Feed returns visible messages after the watermark, oldest first.
func (s *MessagingService) Feed(ctx context.Context, threadID, viewerID, afterID int64) ([]FeedItem, error) {
	thread, err := s.messages.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, thread, viewerID); err != nil {
		return nil, err
	}
	if afterID < 0 {
		afterID = 0
	}
	msgs, err := s.messages.ListAfter(ctx, thread.ID, afterID, s.feedLimit)
	if err != nil {
		return nil, err
	}
	items := make([]FeedItem, 0, len(msgs))
	for i := range msgs {
		items = append(items, NewFeedItem(&msgs[i]))
	}
	return items, nil
}

func (s *MessagingService) Reply(ctx context.Context, threadID, senderID int64, content string) (*FeedItem, error) {
	cleaned, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}
	thread, err := s.messages.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.HasParticipant(senderID) {
		return nil, domain.ErrForbidden
	}
	sender, err := s.activeUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	return s.post(ctx, thread, sender, cleaned)
}

func (s *MessagingService) post(ctx context.Context, thread *domain.Thread, sender *domain.User, content string) (*FeedItem, error) {
	msg := &domain.Message{
		ThreadID:   thread.ID,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		ReceiverID: thread.Counterpart(sender.ID),
		Content:    content,
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if msg.SenderName == "" {
		msg.SenderName = sender.Name
	}
	item := NewFeedItem(msg)

	if s.notifier != nil {
		subject := "New message from " + sender.Name
		if thread.ResourceTitle != "" {
			subject += " about " + thread.ResourceTitle
		}
		if err := s.notifier.Notify(ctx, msg.ReceiverID, subject, preview(content, 160)); err != nil {
			s.logger.Warn("notify message receiver", zap.Int64("thread_id", thread.ID), zap.Error(err))
		}
	}
	return &item, nil
}

func (s *MessagingService) FlagMessage(ctx context.Context, messageID, actorID int64, reason string) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	thread, err := s.messages.GetThread(ctx, msg.ThreadID)
	if err != nil {
		return err
	}
	if err := s.canRead(ctx, thread, actorID); err != nil {
		return err
	}
	reason = validate.Sanitize(reason)
	if reason == "" {
		reason = "Inappropriate content"
	}
	if err := validate.Length("reason", reason, 0, 255); err != nil {
		return err
	}
	return s.messages.Flag(ctx, msg.ID, actorID, reason, s.now().UTC())
}

func (s *MessagingService) HideMessage(ctx context.Context, messageID, adminID int64) error {
	actor, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.messages.Hide(ctx, messageID); err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, actor.ID, "hide_message", "messages", fmt.Sprintf("message %d hidden", messageID)); err != nil {
			s.logger.Warn("record hide message", zap.Error(err))
		}
	}
	return nil
}

// canRead allows thread participants and admins.
func (s *MessagingService) canRead(ctx context.Context, thread *domain.Thread, viewerID int64) error {
	if thread.HasParticipant(viewerID) {
		return nil
	}
	viewer, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return err
	}
	if !viewer.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func (s *MessagingService) cleanContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", domain.NewValidationError("content", "message cannot be empty")
	}
	if utf8.RuneCountInString(content) > s.maxContent {
		return "", domain.NewValidationError("content", fmt.Sprintf("message must not exceed %d characters", s.maxContent))
	}
	content = validate.Sanitize(content)
	if content == "" {
		return "", domain.NewValidationError("content", "message cannot be empty")
	}
	return content, nil
}

func (s *MessagingService) activeUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsSuspended {
		return nil, domain.ErrSuspended
	}
	return u, nil
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

var _ MessagingUseCase = (*MessagingService)(nil)
