package domain

import (
	"fmt"
	"time"
)

type Thread struct {
	ID            int64
	ThreadKey     string
	OwnerID       int64
	ParticipantID int64
	ResourceID    int64
	CreatedAt     time.Time

	ResourceTitle   string
	LastMessageAt   *time.Time
	LastMessageText string
}

// ThreadKey is stable regardless of which participant opens the thread.
func ThreadKey(resourceID, a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("resource:%d:%d:%d", resourceID, a, b)
}

func (t *Thread) HasParticipant(userID int64) bool {
	return t.OwnerID == userID || t.ParticipantID == userID
}

// Counterpart returns the other side of the conversation.
func (t *Thread) Counterpart(userID int64) int64 {
	if t.OwnerID == userID {
		return t.ParticipantID
	}
	return t.OwnerID
}

type Message struct {
	ID         int64
	ThreadID   int64
	SenderID   int64
	SenderName string
	ReceiverID int64
	Content    string
	Timestamp  time.Time
	IsFlagged  bool
	FlagReason string
	FlaggedBy  *int64
	FlaggedAt  *time.Time
	IsHidden   bool
}

type Review struct {
	ID           int64
	ResourceID   int64
	ReviewerID   int64
	ReviewerName string
	Rating       int
	Comment      string
	Timestamp    time.Time
	IsFlagged    bool
	FlagReason   string
	IsHidden     bool
}

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
)

type Notification struct {
	ID        int64
	UserID    int64
	Channel   string
	Subject   string
	Body      string
	Status    NotificationStatus
	CreatedAt time.Time
}
