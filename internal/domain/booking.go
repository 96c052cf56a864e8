package domain

import (
	"sort"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// ActiveBookingStatuses hold a slot on the resource calendar.
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusApproved}

func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusApproved
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusApproved: {BookingStatusCancelled, BookingStatusCompleted},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID             int64
	Token          string
	ResourceID     int64
	RequesterID    int64
	Start          time.Time
	End            time.Time
	Status         BookingStatus
	RecurrenceRule string
	DecisionNotes  string
	DecisionBy     *int64
	DecisionAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Read-only joins.
	ResourceTitle    string
	ResourceCategory string
	RequesterName    string
}

// Interval is a half-open [Start, End) span.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Overlaps widens both spans by buffer on each side of the other.
func (i Interval) Overlaps(o Interval, buffer time.Duration) bool {
	return i.Start.Before(o.End.Add(buffer)) && o.Start.Before(i.End.Add(buffer))
}

func (b Booking) Interval() Interval { return Interval{Start: b.Start, End: b.End} }

// FindConflicts returns active bookings that collide with any candidate.
// excludeID skips the booking being re-checked.
func FindConflicts(existing []Booking, candidates []Interval, buffer time.Duration, excludeID int64) []Booking {
	var conflicts []Booking
	seen := make(map[int64]bool)
	for _, b := range existing {
		if b.ID == excludeID || !b.Status.Active() || seen[b.ID] {
			continue
		}
		for _, c := range candidates {
			if c.Overlaps(b.Interval(), buffer) {
				conflicts = append(conflicts, b)
				seen[b.ID] = true
				break
			}
		}
	}
	return conflicts
}

// AnyOverlap reports whether two of the intervals collide once widened by
// buffer.
func AnyOverlap(intervals []Interval, buffer time.Duration) bool {
	for i := range intervals {
		for j := i + 1; j < len(intervals); j++ {
			if intervals[i].Overlaps(intervals[j], buffer) {
				return true
			}
		}
	}
	return false
}

// Span returns the smallest interval covering every candidate.
func Span(intervals []Interval) Interval {
	if len(intervals) == 0 {
		return Interval{}
	}
	out := intervals[0]
	for _, i := range intervals[1:] {
		if i.Start.Before(out.Start) {
			out.Start = i.Start
		}
		if i.End.After(out.End) {
			out.End = i.End
		}
	}
	return out
}

func SortIntervals(intervals []Interval) {
	sort.Slice(intervals, func(a, b int) bool { return intervals[a].Start.Before(intervals[b].Start) })
}

func BookingIDs(bookings []Booking) []int64 {
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	return ids
}

type WaitlistStatus string

const (
	WaitlistStatusActive    WaitlistStatus = "active"
	WaitlistStatusPromoted  WaitlistStatus = "promoted"
	WaitlistStatusCancelled WaitlistStatus = "cancelled"
)

type WaitlistEntry struct {
	ID             int64
	ResourceID     int64
	RequesterID    int64
	Start          time.Time
	End            time.Time
	Status         WaitlistStatus
	RecurrenceRule string
	BookingID      *int64
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	ResourceTitle  string
}

func (w WaitlistEntry) Interval() Interval { return Interval{Start: w.Start, End: w.End} }

// BookingStats summarises a user's booking history.
type BookingStats struct {
	Total            int    `json:"total"`
	Upcoming         int    `json:"upcoming"`
	Completed        int    `json:"completed"`
	Pending          int    `json:"pending"`
	Cancelled        int    `json:"cancelled"`
	MostUsedCategory string `json:"most_used_category,omitempty"`
}
