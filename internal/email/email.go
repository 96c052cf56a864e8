package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Dialer is the part of *mail.Client the sender needs.
type Dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Sender struct {
	dialer   Dialer
	from     string
	fromName string
	logger   *zap.Logger
}

// NewSender returns a log-only sender when SMTP is not configured.
func NewSender(cfg config.SMTPConfig, logger *zap.Logger) (*Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sender{from: cfg.From, fromName: cfg.FromName, logger: logger}
	if !cfg.Enabled() {
		return s, nil
	}
	c, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("could not initialize smtp client: %w", err)
	}
	s.dialer = c
	return s, nil
}

func (s *Sender) Send(ctx context.Context, event kafka.NotificationEvent) error {
	if event.Email == "" {
		s.logger.Warn("notification without recipient", zap.Int64("user_id", event.UserID))
		return nil
	}
	if s.dialer == nil {
		s.logger.Info("email (smtp disabled)",
			zap.String("to", event.Email),
			zap.String("subject", event.Subject),
			zap.String("body", event.Body))
		return nil
	}

	msg, err := s.buildMessage(event)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", event.Email, err)
	}
	s.logger.Info("email sent", zap.String("to", event.Email), zap.String("subject", event.Subject))
	return nil
}

func (s *Sender) buildMessage(event kafka.NotificationEvent) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}
	if event.Name != "" {
		if err := msg.AddToFormat(event.Name, event.Email); err != nil {
			return nil, fmt.Errorf("set to address: %w", err)
		}
	} else if err := msg.To(event.Email); err != nil {
		return nil, fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(event.Subject)
	msg.SetBodyString(mail.TypeTextPlain, event.Body)
	return msg, nil
}
