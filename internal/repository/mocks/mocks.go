// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/stretchr/testify/mock"
)

type BookingRepository struct {
	mock.Mock
}

func (m *BookingRepository) CreateMany(ctx context.Context, bookings []*domain.Booking) error {
	args := m.Called(ctx, bookings)
	return args.Error(0)
}

func (m *BookingRepository) CreatePromoted(ctx context.Context, bookings []*domain.Booking, entryID int64, at time.Time) error {
	args := m.Called(ctx, bookings, entryID, at)
	return args.Error(0)
}

func (m *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *BookingRepository) Transition(ctx context.Context, id int64, from, to domain.BookingStatus, decision *repository.Decision) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *BookingRepository) ListActiveOverlapping(ctx context.Context, resourceID int64, from, to time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, resourceID, from, to)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *BookingRepository) ListByRequester(ctx context.Context, requesterID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, requesterID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *BookingRepository) ListByResource(ctx context.Context, resourceID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, resourceID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *BookingRepository) ListPendingForOwner(ctx context.Context, ownerID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *BookingRepository) CompleteEndedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *BookingRepository) BusyIntervals(ctx context.Context, resourceIDs []int64, after time.Time) (map[int64][]domain.Interval, error) {
	args := m.Called(ctx, resourceIDs, after)
	return args.Get(0).(map[int64][]domain.Interval), args.Error(1)
}

func (m *BookingRepository) StatsForUser(ctx context.Context, userID int64, now time.Time) (domain.BookingStats, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(domain.BookingStats), args.Error(1)
}

func (m *BookingRepository) MostRequested(ctx context.Context, limit int) ([]repository.ResourceCount, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]repository.ResourceCount), args.Error(1)
}

func (m *BookingRepository) HasCompleted(ctx context.Context, userID, resourceID int64) (bool, error) {
	args := m.Called(ctx, userID, resourceID)
	return args.Bool(0), args.Error(1)
}

type WaitlistRepository struct {
	mock.Mock
}

func (m *WaitlistRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *WaitlistRepository) GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WaitlistEntry), args.Error(1)
}

func (m *WaitlistRepository) ListActiveByResource(ctx context.Context, resourceID int64) ([]domain.WaitlistEntry, error) {
	args := m.Called(ctx, resourceID)
	return args.Get(0).([]domain.WaitlistEntry), args.Error(1)
}

func (m *WaitlistRepository) ListByRequester(ctx context.Context, requesterID int64) ([]domain.WaitlistEntry, error) {
	args := m.Called(ctx, requesterID)
	return args.Get(0).([]domain.WaitlistEntry), args.Error(1)
}

func (m *WaitlistRepository) HasActive(ctx context.Context, requesterID, resourceID int64, start, end time.Time) (bool, error) {
	args := m.Called(ctx, requesterID, resourceID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *WaitlistRepository) Cancel(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *WaitlistRepository) ExpireStartedBefore(ctx context.Context, deadline time.Time) ([]domain.WaitlistEntry, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).([]domain.WaitlistEntry), args.Error(1)
}

func (m *WaitlistRepository) ResourcesWithActive(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}

type ResourceRepository struct {
	mock.Mock
}

func (m *ResourceRepository) Create(ctx context.Context, resource *domain.Resource) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}

func (m *ResourceRepository) Update(ctx context.Context, resource *domain.Resource) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}

func (m *ResourceRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ResourceRepository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

func (m *ResourceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Resource, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

func (m *ResourceRepository) Search(ctx context.Context, filter repository.ResourceFilter) ([]domain.Resource, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Resource), args.Int(1), args.Error(2)
}

func (m *ResourceRepository) CategoryCounts(ctx context.Context, status domain.ResourceStatus) ([]repository.CategoryCount, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]repository.CategoryCount), args.Error(1)
}

func (m *ResourceRepository) Titles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepository) SetSuspended(ctx context.Context, id int64, suspended bool) (*domain.User, error) {
	args := m.Called(ctx, id, suspended)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *UserRepository) NotificationsSeenAt(ctx context.Context, id int64) (*time.Time, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *UserRepository) MarkNotificationsSeen(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) GetThread(ctx context.Context, id int64) (*domain.Thread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Thread), args.Error(1)
}

func (m *MessageRepository) GetThreadByKey(ctx context.Context, key string) (*domain.Thread, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Thread), args.Error(1)
}

func (m *MessageRepository) CreateThread(ctx context.Context, thread *domain.Thread) error {
	args := m.Called(ctx, thread)
	return args.Error(0)
}

func (m *MessageRepository) ListThreadsForUser(ctx context.Context, userID int64) ([]domain.Thread, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Thread), args.Error(1)
}

func (m *MessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepository) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MessageRepository) ListAfter(ctx context.Context, threadID, afterID int64, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, threadID, afterID, limit)
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MessageRepository) Flag(ctx context.Context, id, by int64, reason string, at time.Time) error {
	args := m.Called(ctx, id, by, reason, at)
	return args.Error(0)
}

func (m *MessageRepository) Hide(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type ReviewRepository struct {
	mock.Mock
}

func (m *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewRepository) ListByResource(ctx context.Context, resourceID int64) ([]domain.Review, error) {
	args := m.Called(ctx, resourceID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *ReviewRepository) Stats(ctx context.Context, resourceIDs []int64) (map[int64]domain.RatingStats, error) {
	args := m.Called(ctx, resourceIDs)
	return args.Get(0).(map[int64]domain.RatingStats), args.Error(1)
}

func (m *ReviewRepository) Flag(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *ReviewRepository) Hide(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, int, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}

func (m *NotificationRepository) CountSince(ctx context.Context, userID int64, since *time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AdminLogRepository struct {
	mock.Mock
}

func (m *AdminLogRepository) Create(ctx context.Context, entry *domain.AdminLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *AdminLogRepository) List(ctx context.Context, limit int) ([]domain.AdminLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.AdminLog), args.Error(1)
}

var (
	_ repository.BookingRepository      = (*BookingRepository)(nil)
	_ repository.WaitlistRepository     = (*WaitlistRepository)(nil)
	_ repository.ResourceRepository     = (*ResourceRepository)(nil)
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.MessageRepository      = (*MessageRepository)(nil)
	_ repository.ReviewRepository       = (*ReviewRepository)(nil)
	_ repository.NotificationRepository = (*NotificationRepository)(nil)
	_ repository.AdminLogRepository     = (*AdminLogRepository)(nil)
)
