package messaging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID int64, subject, body string) error {
	args := m.Called(ctx, userID, subject, body)
	return args.Error(0)
}

type MockAdminRecorder struct {
	mock.Mock
}

func (m *MockAdminRecorder) Record(ctx context.Context, adminID int64, action, table, details string) error {
	args := m.Called(ctx, adminID, action, table, details)
	return args.Error(0)
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	messages  *mocks.MessageRepository
	users     *mocks.UserRepository
	resources *mocks.ResourceRepository
	notifier  *MockNotifier
	audit     *MockAdminRecorder
	service   *MessagingService
}

func newFixture() *fixture {
	f := &fixture{
		messages:  &mocks.MessageRepository{},
		users:     &mocks.UserRepository{},
		resources: &mocks.ResourceRepository{},
		notifier:  &MockNotifier{},
		audit:     &MockAdminRecorder{},
	}
	f.service = &MessagingService{
		messages:   f.messages,
		users:      f.users,
		resources:  f.resources,
		notifier:   f.notifier,
		audit:      f.audit,
		feedLimit:  DefaultFeedLimit,
		maxContent: DefaultMaxContentLength,
		now:        func() time.Time { return testNow },
		logger:     zap.NewNop(),
	}
	return f
}

var (
	alice  = &domain.User{ID: 1, Name: "Alice", Role: domain.RoleStudent}
	bob    = &domain.User{ID: 2, Name: "Bob", Role: domain.RoleStaff}
	carol  = &domain.User{ID: 5, Name: "Carol", Role: domain.RoleStudent}
	admin  = &domain.User{ID: 9, Name: "Admin", Role: domain.RoleAdmin}
	thread = &domain.Thread{ID: 12, ThreadKey: "resource:7:1:2", OwnerID: 2, ParticipantID: 1, ResourceID: 7, ResourceTitle: "Studio"}
)

func TestMessagingService_Feed_AfterWatermark(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ts := time.Date(2026, 3, 2, 8, 0, 0, 0, time.FixedZone("EST", -5*3600))

	f.messages.On("GetThread", ctx, int64(12)).Return(thread, nil).Once()
	f.messages.On("ListAfter", ctx, int64(12), int64(40), DefaultFeedLimit).Return([]domain.Message{
		{ID: 41, ThreadID: 12, SenderID: 2, SenderName: "Bob", Content: "hi", Timestamp: ts},
		{ID: 42, ThreadID: 12, SenderID: 1, SenderName: "Alice", Content: "hello", Timestamp: ts},
	}, nil).Once()

	items, err := f.service.Feed(ctx, 12, 1, 40)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, FeedItem{MessageID: 41, SenderID: 2, SenderName: "Bob", Timestamp: ts.UTC(), Content: "hi"}, items[0])
	assert.Equal(t, int64(42), items[1].MessageID)
}

func TestMessagingService_Feed_NegativeWatermarkStartsFromZero(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.messages.On("GetThread", ctx, int64(12)).Return(thread, nil).Once()
	f.messages.On("ListAfter", ctx, int64(12), int64(0), DefaultFeedLimit).Return([]domain.Message{}, nil).Once()

	items, err := f.service.Feed(ctx, 12, 2, -5)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestMessagingService_Feed_Access(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.messages.On("GetThread", ctx, int64(12)).Return(thread, nil)
	f.users.On("GetByID", ctx, int64(5)).Return(carol, nil).Once()
	f.users.On("GetByID", ctx, int64(9)).Return(admin, nil).Once()
	f.messages.On("ListAfter", ctx, int64(12), int64(0), DefaultFeedLimit).Return([]domain.Message{}, nil).Once()

	_, err := f.service.Feed(ctx, 12, 5, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.Feed(ctx, 12, 9, 0)
	assert.NoError(t, err)
}

func TestMessagingService_Reply(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.messages.On("GetThread", ctx, int64(12)).Return(thread, nil).Once()
	f.users.On("GetByID", ctx, int64(1)).Return(alice, nil).Once()
	f.messages.On("CreateMessage", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ThreadID == 12 && m.SenderID == 1 && m.ReceiverID == 2 && m.Content == "See you at 3"
	})).Run(func(args mock.Arguments) {
		m := args.Get(1).(*domain.Message)
		m.ID = 43
		m.Timestamp = testNow
	}).Return(nil).Once()
	f.notifier.On("Notify", ctx, int64(2), "New message from Alice about Studio", "See you at 3").Return(nil).Once()

	item, err := f.service.Reply(ctx, 12, 1, "  <i>See you at 3</i>  ")

	require.NoError(t, err)
	assert.Equal(t, int64(43), item.MessageID)
	assert.Equal(t, "Alice", item.SenderName)
	assert.Equal(t, testNow, item.Timestamp)
	f.messages.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestMessagingService_Reply_Rejects(t *testing.T) {
	t.Run("whitespace only", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.Reply(context.Background(), 12, 1, " \n\t ")
		assert.ErrorIs(t, err, domain.ErrValidation)
		f.messages.AssertNotCalled(t, "GetThread", mock.Anything, mock.Anything)
	})

	t.Run("too long", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.Reply(context.Background(), 12, 1, strings.Repeat("a", DefaultMaxContentLength+1))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("markup only", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.Reply(context.Background(), 12, 1, "<script></script>")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("outsider", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		f.messages.On("GetThread", ctx, int64(12)).Return(thread, nil).Once()
		_, err := f.service.Reply(ctx, 12, 5, "hello")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("suspended sender", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		suspended := *alice
		suspended.IsSuspended = true
		f.messages.On("GetThread", ctx, int64(12)).Return(thread, nil).Once()
		f.users.On("GetByID", ctx, int64(1)).Return(&suspended, nil).Once()
		_, err := f.service.Reply(ctx, 12, 1, "hello")
		assert.ErrorIs(t, err, domain.ErrSuspended)
	})
}

func TestMessagingService_StartThread_CreatesKeyedThread(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	resource := &domain.Resource{ID: 7, OwnerID: 2, Title: "Studio"}

	f.users.On("GetByID", ctx, int64(1)).Return(alice, nil).Once()
	f.resources.On("GetByID", ctx, int64(7)).Return(resource, nil).Once()
	f.users.On("GetByID", ctx, int64(2)).Return(bob, nil).Once()
	f.messages.On("GetThreadByKey", ctx, "resource:7:1:2").Return(nil, domain.ErrNotFound).Once()
	f.messages.On("CreateThread", ctx, mock.MatchedBy(func(th *domain.Thread) bool {
		return th.OwnerID == 2 && th.ParticipantID == 1 && th.ResourceID == 7
	})).Run(func(args mock.Arguments) { args.Get(1).(*domain.Thread).ID = 12 }).Return(nil).Once()
	f.messages.On("CreateMessage", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Message).ID = 1
	}).Return(nil).Once()
	f.notifier.On("Notify", ctx, int64(2), mock.Anything, "Is the studio free Friday?").Return(nil).Once()

	th, item, err := f.service.StartThread(ctx, StartThreadInput{SenderID: 1, ResourceID: 7, Content: "Is the studio free Friday?"})

	require.NoError(t, err)
	assert.Equal(t, int64(12), th.ID)
	assert.Equal(t, int64(1), item.MessageID)
	f.messages.AssertExpectations(t)
}

func TestMessagingService_StartThread_ReusesExisting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	resource := &domain.Resource{ID: 7, OwnerID: 2, Title: "Studio"}

	f.users.On("GetByID", ctx, int64(2)).Return(bob, nil).Once()
	f.resources.On("GetByID", ctx, int64(7)).Return(resource, nil).Once()
	f.users.On("GetByID", ctx, int64(1)).Return(alice, nil).Once()
	f.messages.On("GetThreadByKey", ctx, "resource:7:1:2").Return(thread, nil).Once()
	f.messages.On("CreateMessage", ctx, mock.MatchedBy(func(m *domain.Message) bool { return m.ReceiverID == 1 })).Return(nil).Once()
	f.notifier.On("Notify", ctx, int64(1), mock.Anything, mock.Anything).Return(nil).Once()

	th, _, err := f.service.StartThread(ctx, StartThreadInput{SenderID: 2, ResourceID: 7, RecipientID: 1, Content: "Yes"})

	require.NoError(t, err)
	assert.Same(t, thread, th)
	f.messages.AssertNotCalled(t, "CreateThread", mock.Anything, mock.Anything)
}

func TestMessagingService_StartThread_SelfMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("GetByID", ctx, int64(2)).Return(bob, nil).Once()
	f.resources.On("GetByID", ctx, int64(7)).Return(&domain.Resource{ID: 7, OwnerID: 2}, nil).Once()

	_, _, err := f.service.StartThread(ctx, StartThreadInput{SenderID: 2, ResourceID: 7, Content: "note to self"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMessagingService_FlagAndHide(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	msg := &domain.Message{ID: 41, ThreadID: 12, SenderID: 2}

	f.messages.On("GetMessage", ctx, int64(41)).Return(msg, nil).Once()
	f.messages.On("GetThread", ctx, int64(12)).Return(thread, nil).Once()
	f.messages.On("Flag", ctx, int64(41), int64(1), "Inappropriate content", testNow).Return(nil).Once()
	require.NoError(t, f.service.FlagMessage(ctx, 41, 1, "  "))

	f.users.On("GetByID", ctx, int64(1)).Return(alice, nil).Once()
	assert.ErrorIs(t, f.service.HideMessage(ctx, 41, 1), domain.ErrForbidden)

	f.users.On("GetByID", ctx, int64(9)).Return(admin, nil).Once()
	f.messages.On("Hide", ctx, int64(41)).Return(nil).Once()
	f.audit.On("Record", ctx, int64(9), "hide_message", "messages", "message 41 hidden").Return(nil).Once()
	require.NoError(t, f.service.HideMessage(ctx, 41, 9))

	f.messages.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "abcdefg...", preview("abcdefghijklmnop", 10))
}
