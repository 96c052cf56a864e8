package concierge

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/campushub/internal/availability"
	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"go.uber.org/zap"
)

const slotSearchDays = 7

// availabilityAnswer resolves "is X available now" style questions from the
// schedule and bookings. ok is false when the question is not about a known
// resource, so the regular pipeline handles it.
func (s *ConciergeService) availabilityAnswer(ctx context.Context, question string, publishedOnly bool) (string, bool, error) {
	name, ok := availabilitySubject(question)
	if !ok {
		return "", false, nil
	}

	filter := repository.ResourceFilter{Keyword: name, Limit: 5}
	if publishedOnly {
		filter.Status = domain.ResourceStatusPublished
	}
	found, _, err := s.resources.Search(ctx, filter)
	if err != nil {
		return "", false, fmt.Errorf("search resources: %w", err)
	}
	if len(found) == 0 {
		return "", false, nil
	}
	resource := found[0]

	now := s.now()
	bookings, err := s.bookings.ListByResource(ctx, resource.ID)
	if err != nil {
		return "", false, fmt.Errorf("list bookings: %w", err)
	}
	var busy []domain.Interval
	for _, b := range bookings {
		if b.Status.Active() && b.End.After(now) {
			busy = append(busy, b.Interval())
		}
	}
	domain.SortIntervals(busy)

	schedule, err := availability.FromWeekly(resource.Schedule)
	if err != nil {
		s.logger.Warn("ignoring malformed schedule", zap.Int64("resource_id", resource.ID), zap.Error(err))
		schedule = availability.Schedule{}
	}

	localNow := now.In(s.loc)
	var reason string
	if !schedule.Empty() && !schedule.IsOpen(localNow) {
		reason = "The resource is currently outside its operating hours."
	} else {
		for _, b := range busy {
			if !b.Start.After(now) && now.Before(b.End) {
				reason = fmt.Sprintf("The resource is currently booked until %s.", s.formatWhen(b.End))
				break
			}
		}
	}

	if reason == "" {
		answer := fmt.Sprintf("✅ Yes! **%s** is available right now.", resource.Title)
		if closing, ok := schedule.ClosingTime(localNow); ok && !schedule.Empty() {
			answer += fmt.Sprintf(" It's open until %s today.", closing.Format("3:04 PM"))
		}
		return answer, true, nil
	}

	answer := fmt.Sprintf("❌ **%s** is not available right now. %s", resource.Title, reason)
	slot, ok := s.nextSlot(&resource, schedule, busy, now)
	if ok {
		answer += fmt.Sprintf("\n\n📅 The next available slot is %s.", s.formatWhen(slot))
	} else {
		answer += "\n\nI couldn't find an available slot in the next 7 days. Please check back later or contact the resource owner."
	}
	return answer, true, nil
}

func (s *ConciergeService) nextSlot(r *domain.Resource, schedule availability.Schedule, busy []domain.Interval, now time.Time) (time.Time, bool) {
	duration := r.MinBookingMinutes
	if duration <= 0 {
		duration = 60
	}
	increment := r.BookingIncrementMinutes
	if increment <= 0 {
		increment = 30
	}
	return availability.NextAvailableSlot(availability.SlotQuery{
		Schedule:     schedule,
		Busy:         busy,
		Duration:     time.Duration(duration) * time.Minute,
		Buffer:       r.Buffer(),
		From:         now,
		LeadTime:     time.Duration(r.MinLeadTimeHours) * time.Hour,
		MaxDaysAhead: slotSearchDays,
		Increment:    time.Duration(increment) * time.Minute,
		Location:     s.loc,
	})
}

// formatWhen renders t relative to today in campus time.
func (s *ConciergeService) formatWhen(t time.Time) string {
	local := t.In(s.loc)
	today := s.now().In(s.loc)
	y, m, d := local.Date()
	ty, tm, td := today.Date()
	tomorrow := time.Date(ty, tm, td+1, 0, 0, 0, 0, s.loc)

	switch {
	case y == ty && m == tm && d == td:
		return "today at " + local.Format("3:04 PM")
	case y == tomorrow.Year() && m == tomorrow.Month() && d == tomorrow.Day():
		return "tomorrow at " + local.Format("3:04 PM")
	default:
		return local.Format("Monday, January 02 at 3:04 PM")
	}
}
