package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/go-co-op/gocron/v2"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, event kafka.NotificationEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockMarker struct {
	mock.Mock
}

func (m *MockMarker) MarkDelivered(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) CompletePastBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockSweeper) SweepWaitlists(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func message(t *testing.T, ev kafka.NotificationEvent) kafkaGo.Message {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafkaGo.Message{Value: data}
}

func TestNotificationHandler_Delivers(t *testing.T) {
	mailer := &MockMailer{}
	marker := &MockMarker{}
	handler := NotificationHandler(mailer, marker, zap.NewNop())
	ctx := context.Background()

	ev := kafka.NotificationEvent{NotificationID: 5, UserID: 7, Email: "sam@iu.edu", Subject: "Booking approved"}
	mailer.On("Send", ctx, mock.MatchedBy(func(got kafka.NotificationEvent) bool {
		return got.NotificationID == 5 && got.Email == "sam@iu.edu"
	})).Return(nil)
	marker.On("MarkDelivered", ctx, int64(5)).Return(nil)

	assert.NoError(t, handler(ctx, message(t, ev)))
	mailer.AssertExpectations(t)
	marker.AssertExpectations(t)
}

func TestNotificationHandler_SendFailureLeavesPending(t *testing.T) {
	mailer := &MockMailer{}
	marker := &MockMarker{}
	handler := NotificationHandler(mailer, marker, zap.NewNop())
	ctx := context.Background()

	mailer.On("Send", ctx, mock.Anything).Return(errors.New("smtp: 451"))

	assert.NoError(t, handler(ctx, message(t, kafka.NotificationEvent{NotificationID: 5, Email: "sam@iu.edu"})))
	marker.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything)
}

func TestNotificationHandler_MalformedSkipped(t *testing.T) {
	mailer := &MockMailer{}
	marker := &MockMarker{}
	handler := NotificationHandler(mailer, marker, zap.NewNop())

	assert.NoError(t, handler(context.Background(), kafkaGo.Message{Value: []byte("{not json")}))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestScheduleSweeps(t *testing.T) {
	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	err = ScheduleSweeps(context.Background(), s, config.WorkerConfig{CompletionSweepMinutes: 5, WaitlistSweepMinutes: 5}, &MockSweeper{}, zap.NewNop())
	require.NoError(t, err)

	names := make([]string, 0, 2)
	for _, j := range s.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"complete-past-bookings", "sweep-waitlists"}, names)
}

func TestSweepHelpers_LogErrors(t *testing.T) {
	sweeper := &MockSweeper{}
	ctx := context.Background()
	sweeper.On("CompletePastBookings", ctx).Return([]domain.Booking{{ID: 1}}, nil)
	sweeper.On("SweepWaitlists", ctx).Return(0, errors.New("db down"))

	completeBookings(ctx, sweeper, zap.NewNop())
	sweepWaitlists(ctx, sweeper, zap.NewNop())

	sweeper.AssertExpectations(t)
}
