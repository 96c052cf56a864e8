package email

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	args := m.Called(ctx, messages)
	return args.Error(0)
}

func TestSender_LogOnlyWhenDisabled(t *testing.T) {
	s, err := NewSender(config.SMTPConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, s.dialer)
	assert.NoError(t, s.Send(context.Background(), kafka.NotificationEvent{Email: "a@iu.edu", Subject: "x"}))
}

func TestSender_SendsThroughDialer(t *testing.T) {
	dialer := &MockDialer{}
	s := &Sender{dialer: dialer, from: "hub@iu.edu", fromName: "Campus Hub", logger: zap.NewNop()}

	ctx := context.Background()
	dialer.On("DialAndSendWithContext", ctx, mock.MatchedBy(func(msgs []*mail.Msg) bool {
		return len(msgs) == 1
	})).Return(nil).Once()

	err := s.Send(ctx, kafka.NotificationEvent{Email: "a@iu.edu", Subject: "Booking approved", Body: "See you"})
	assert.NoError(t, err)
	dialer.AssertExpectations(t)
}

func TestSender_WrapsDialError(t *testing.T) {
	dialer := &MockDialer{}
	s := &Sender{dialer: dialer, from: "hub@iu.edu", logger: zap.NewNop()}
	dialer.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := s.Send(context.Background(), kafka.NotificationEvent{Email: "a@iu.edu"})
	assert.ErrorContains(t, err, "smtp down")
}

func TestSender_SkipsMissingRecipient(t *testing.T) {
	dialer := &MockDialer{}
	s := &Sender{dialer: dialer, logger: zap.NewNop()}
	assert.NoError(t, s.Send(context.Background(), kafka.NotificationEvent{UserID: 3}))
	dialer.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
}
