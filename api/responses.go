package api

import (
	"strconv"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
)

type userResponse struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Department  string      `json:"department,omitempty"`
	IsSuspended bool        `json:"is_suspended"`
	CreatedAt   time.Time   `json:"created_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Department:  u.Department,
		IsSuspended: u.IsSuspended,
		CreatedAt:   u.CreatedAt,
	}
}

type bookingResponse struct {
	ID             int64                `json:"id"`
	Token          string               `json:"token"`
	ResourceID     int64                `json:"resource_id"`
	ResourceTitle  string               `json:"resource_title,omitempty"`
	RequesterID    int64                `json:"requester_id"`
	RequesterName  string               `json:"requester_name,omitempty"`
	Start          string               `json:"start"`
	End            string               `json:"end"`
	Status         domain.BookingStatus `json:"status"`
	RecurrenceRule string               `json:"recurrence_rule,omitempty"`
	DecisionNotes  string               `json:"decision_notes,omitempty"`
	CreatedAt      string               `json:"created_at"`
}

func newBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		Token:          b.Token,
		ResourceID:     b.ResourceID,
		ResourceTitle:  b.ResourceTitle,
		RequesterID:    b.RequesterID,
		RequesterName:  b.RequesterName,
		Start:          b.Start.UTC().Format(time.RFC3339),
		End:            b.End.UTC().Format(time.RFC3339),
		Status:         b.Status,
		RecurrenceRule: b.RecurrenceRule,
		DecisionNotes:  b.DecisionNotes,
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newBookingList(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, newBookingResponse(&bookings[i]))
	}
	return out
}

type waitlistResponse struct {
	ID            int64                 `json:"id"`
	ResourceID    int64                 `json:"resource_id"`
	ResourceTitle string                `json:"resource_title,omitempty"`
	Start         string                `json:"start"`
	End           string                `json:"end"`
	Status        domain.WaitlistStatus `json:"status"`
	BookingID     *int64                `json:"booking_id,omitempty"`
	CreatedAt     string                `json:"created_at"`
}

func newWaitlistResponse(w *domain.WaitlistEntry) waitlistResponse {
	return waitlistResponse{
		ID:            w.ID,
		ResourceID:    w.ResourceID,
		ResourceTitle: w.ResourceTitle,
		Start:         w.Start.UTC().Format(time.RFC3339),
		End:           w.End.UTC().Format(time.RFC3339),
		Status:        w.Status,
		BookingID:     w.BookingID,
		CreatedAt:     w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type threadResponse struct {
	ID              int64      `json:"id"`
	ResourceID      int64      `json:"resource_id"`
	ResourceTitle   string     `json:"resource_title,omitempty"`
	OwnerID         int64      `json:"owner_id"`
	ParticipantID   int64      `json:"participant_id"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
	LastMessageText string     `json:"last_message_text,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newThreadResponse(t *domain.Thread) threadResponse {
	return threadResponse{
		ID:              t.ID,
		ResourceID:      t.ResourceID,
		ResourceTitle:   t.ResourceTitle,
		OwnerID:         t.OwnerID,
		ParticipantID:   t.ParticipantID,
		LastMessageAt:   t.LastMessageAt,
		LastMessageText: t.LastMessageText,
		CreatedAt:       t.CreatedAt,
	}
}

type reviewResponse struct {
	ID           int64     `json:"id"`
	ResourceID   int64     `json:"resource_id"`
	ReviewerID   int64     `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Timestamp    time.Time `json:"timestamp"`
}

func newReviewResponse(r *domain.Review) reviewResponse {
	return reviewResponse{
		ID:           r.ID,
		ResourceID:   r.ResourceID,
		ReviewerID:   r.ReviewerID,
		ReviewerName: r.ReviewerName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		Timestamp:    r.Timestamp,
	}
}

type notificationResponse struct {
	ID        int64                     `json:"id"`
	Subject   string                    `json:"subject"`
	Body      string                    `json:"body"`
	Status    domain.NotificationStatus `json:"status"`
	CreatedAt time.Time                 `json:"created_at"`
}

type adminLogResponse struct {
	ID          int64     `json:"id"`
	AdminID     int64     `json:"admin_id"`
	Action      string    `json:"action"`
	TargetTable string    `json:"target_table"`
	Details     string    `json:"details"`
	CreatedAt   time.Time `json:"created_at"`
}

func paramID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
