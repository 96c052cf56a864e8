package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingApproved  = "booking_approved"
	EventBookingRejected  = "booking_rejected"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventBookingPromoted  = "booking_promoted"
)

type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   int64     `json:"booking_id"`
	Token       string    `json:"token"`
	ResourceID  int64     `json:"resource_id"`
	RequesterID int64     `json:"requester_id"`
	Status      string    `json:"status"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		Token:       b.Token,
		ResourceID:  b.ResourceID,
		RequesterID: b.RequesterID,
		Status:      string(b.Status),
		Start:       b.Start,
		End:         b.End,
		OccurredAt:  at,
	}
}

// NotificationEvent is what the worker turns into an e-mail.
type NotificationEvent struct {
	NotificationID int64     `json:"notification_id"`
	UserID         int64     `json:"user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

func DecodeNotification(data []byte) (NotificationEvent, error) {
	var ev NotificationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decode notification event: %w", err)
	}
	return ev, nil
}
