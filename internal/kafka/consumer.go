package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/logging"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler processes one message. A returned error stops the consumer and the
// message stays uncommitted.
type Handler func(ctx context.Context, msg kafka.Message) error

// Consumer reads the notifications topic as a member of the worker group.
type Consumer struct {
	reader *kafka.Reader
	logger *zap.Logger
}

func NewConsumer(cfg config.KafkaConfig, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           cfg.Brokers,
			GroupID:           cfg.GroupID,
			Topic:             cfg.NotificationsTopic,
			StartOffset:       kafka.FirstOffset,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
			MaxWait:           time.Second,
		}),
		logger: logging.OrNop(logger),
	}
}

// Topic reports the topic the reader is subscribed to.
func (c *Consumer) Topic() string {
	return c.reader.Config().Topic
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume delivers messages to handler until ctx is done. Offsets are
// committed only after handler returns nil.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("fetch %s: %w", c.Topic(), err)
		}

		if err := handler(ctx, msg); err != nil {
			return fmt.Errorf("handle %s/%d@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("commit offset",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}
