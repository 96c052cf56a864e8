package availability

import (
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
)

type SlotQuery struct {
	Schedule     Schedule
	Busy         []domain.Interval
	Duration     time.Duration
	Buffer       time.Duration
	From         time.Time
	LeadTime     time.Duration
	MaxDaysAhead int
	Increment    time.Duration
	Location     *time.Location
}

// NextAvailableSlot walks forward from From+LeadTime in Increment steps and
// returns the first start whose slot fits the schedule and clears every busy
// interval. An empty schedule yields no slot.
func NextAvailableSlot(q SlotQuery) (time.Time, bool) {
	if q.Schedule.Empty() {
		return time.Time{}, false
	}
	if q.Duration <= 0 {
		q.Duration = time.Hour
	}
	if q.Increment <= 0 {
		q.Increment = 30 * time.Minute
	}
	if q.MaxDaysAhead <= 0 {
		q.MaxDaysAhead = 7
	}
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}

	earliest := q.From.Add(q.LeadTime)
	cursor := earliest.Truncate(q.Increment)
	if cursor.Before(earliest) {
		cursor = cursor.Add(q.Increment)
	}
	limit := q.From.Add(time.Duration(q.MaxDaysAhead) * 24 * time.Hour)

	for ; !cursor.After(limit); cursor = cursor.Add(q.Increment) {
		candidate := domain.Interval{Start: cursor, End: cursor.Add(q.Duration)}
		if !q.Schedule.Contains(candidate.Start.In(loc), candidate.End.In(loc)) {
			continue
		}
		free := true
		for _, busy := range q.Busy {
			if candidate.Overlaps(busy, q.Buffer) {
				free = false
				break
			}
		}
		if free {
			return cursor, true
		}
	}
	return time.Time{}, false
}

// NextFreeWindow returns the first gap at or after now between the given busy
// intervals. An open-ended gap has a zero End.
func NextFreeWindow(now time.Time, busy []domain.Interval) domain.Interval {
	sorted := make([]domain.Interval, 0, len(busy))
	for _, b := range busy {
		if b.End.After(now) {
			sorted = append(sorted, b)
		}
	}
	domain.SortIntervals(sorted)

	cursor := now
	for _, b := range sorted {
		if b.Start.After(cursor) {
			return domain.Interval{Start: cursor, End: b.Start}
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	return domain.Interval{Start: cursor}
}

// Label describes how soon a free window opens.
func Label(now time.Time, window domain.Interval) string {
	wait := window.Start.Sub(now)
	switch {
	case wait <= 5*time.Minute:
		return "Open now"
	case wait <= 24*time.Hour:
		return "Available soon"
	default:
		return "Limited availability"
	}
}
