package resources

import (
	"time"

	"github.com/Domenick1991/campushub/internal/availability"
	"github.com/Domenick1991/campushub/internal/domain"
)

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type NextAvailable struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
	Label string     `json:"label"`
}

// Listing is the public view of a resource.
type Listing struct {
	ID                      int64                 `json:"id"`
	OwnerID                 int64                 `json:"owner_id"`
	Title                   string                `json:"title"`
	Slug                    string                `json:"slug"`
	Description             string                `json:"description"`
	Category                string                `json:"category"`
	Location                string                `json:"location"`
	Capacity                *int                  `json:"capacity"`
	Equipment               []string              `json:"equipment"`
	AvailabilityRules       string                `json:"availability_rules,omitempty"`
	IsRestricted            bool                  `json:"is_restricted"`
	Status                  domain.ResourceStatus `json:"status"`
	Schedule                domain.WeeklySchedule `json:"availability_schedule,omitempty"`
	MinBookingMinutes       int                   `json:"min_booking_minutes,omitempty"`
	MaxBookingMinutes       int                   `json:"max_booking_minutes,omitempty"`
	BookingIncrementMinutes int                   `json:"booking_increment_minutes,omitempty"`
	BufferMinutes           int                   `json:"buffer_minutes,omitempty"`
	AdvanceBookingDays      int                   `json:"advance_booking_days,omitempty"`
	MinLeadTimeHours        int                   `json:"min_lead_time_hours,omitempty"`
	Rating                  Rating                `json:"rating"`
	TopRated                bool                  `json:"top_rated"`
	CanAccess               bool                  `json:"can_access"`
	NextAvailable           *NextAvailable        `json:"next_available,omitempty"`
	CreatedAt               time.Time             `json:"created_at"`
}

func NewListing(r *domain.Resource) Listing {
	equipment := r.EquipmentList()
	if equipment == nil {
		equipment = []string{}
	}
	return Listing{
		ID:                      r.ID,
		OwnerID:                 r.OwnerID,
		Title:                   r.Title,
		Slug:                    r.Slug,
		Description:             r.Description,
		Category:                r.Category,
		Location:                r.Location,
		Capacity:                r.Capacity,
		Equipment:               equipment,
		AvailabilityRules:       r.AvailabilityRules,
		IsRestricted:            r.IsRestricted,
		Status:                  r.Status,
		Schedule:                r.Schedule,
		MinBookingMinutes:       r.MinBookingMinutes,
		MaxBookingMinutes:       r.MaxBookingMinutes,
		BookingIncrementMinutes: r.BookingIncrementMinutes,
		BufferMinutes:           r.BufferMinutes,
		AdvanceBookingDays:      r.AdvanceBookingDays,
		MinLeadTimeHours:        r.MinLeadTimeHours,
		CreatedAt:               r.CreatedAt,
	}
}

func (l *Listing) applyRating(stats domain.RatingStats) {
	l.Rating = Rating{Average: stats.Average, Count: stats.Count}
	l.TopRated = stats.TopRated()
}

func (l *Listing) applyBusy(now time.Time, busy []domain.Interval) {
	window := availability.NextFreeWindow(now, busy)
	next := &NextAvailable{Start: window.Start, Label: availability.Label(now, window)}
	if !window.End.IsZero() {
		end := window.End
		next.End = &end
	}
	l.NextAvailable = next
}

// CanAccess reports whether viewer may book r without special approval.
func CanAccess(viewer *domain.User, r Listing) bool {
	if !r.IsRestricted {
		return true
	}
	return viewer.IsStaff() || (viewer != nil && viewer.ID == r.OwnerID)
}
