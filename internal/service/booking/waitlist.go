package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/Domenick1991/campushub/internal/recurrence"
	"go.uber.org/zap"
)

type WaitlistUseCase interface {
	JoinWaitlist(ctx context.Context, input CreateBookingInput) (*domain.WaitlistEntry, error)
	LeaveWaitlist(ctx context.Context, entryID, actorID int64) error
	ListMyWaitlist(ctx context.Context, userID int64) ([]domain.WaitlistEntry, error)
	PromoteWaitlist(ctx context.Context, resourceID int64) ([]domain.Booking, error)
	SweepWaitlists(ctx context.Context) (int, error)
}

func (s *BookingService) JoinWaitlist(ctx context.Context, input CreateBookingInput) (*domain.WaitlistEntry, error) {
	_, _, occurrences, rule, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, input, occurrences[0], rule)
}

func (s *BookingService) enqueue(ctx context.Context, input CreateBookingInput, first domain.Interval, rule *recurrence.Rule) (*domain.WaitlistEntry, error) {
	exists, err := s.waitlist.HasActive(ctx, input.RequesterID, input.ResourceID, first.Start, first.End)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: already on the waitlist for this time", domain.ErrConflict)
	}

	entry := &domain.WaitlistEntry{
		ResourceID:     input.ResourceID,
		RequesterID:    input.RequesterID,
		Start:          first.Start,
		End:            first.End,
		Status:         domain.WaitlistStatusActive,
		RecurrenceRule: rule.String(),
	}
	if err := s.waitlist.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.notify(ctx, input.RequesterID, "Added to waitlist",
		fmt.Sprintf("You are on the waitlist for %s. We will book it for you if it frees up.", s.formatWhen(first.Start)))
	return entry, nil
}

func (s *BookingService) LeaveWaitlist(ctx context.Context, entryID, actorID int64) error {
	entry, err := s.waitlist.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.RequesterID != actorID {
		return domain.ErrForbidden
	}
	if entry.Status != domain.WaitlistStatusActive {
		return fmt.Errorf("waitlist entry is %s: %w", entry.Status, domain.ErrInvalidTransition)
	}
	return s.waitlist.Cancel(ctx, entry.ID, s.now().UTC())
}

func (s *BookingService) ListMyWaitlist(ctx context.Context, userID int64) ([]domain.WaitlistEntry, error) {
	return s.waitlist.ListByRequester(ctx, userID)
}

// PromoteWaitlist walks active entries in arrival order and books every one
// whose slots are now free. Entries that still conflict keep their place.
func (s *BookingService) PromoteWaitlist(ctx context.Context, resourceID int64) ([]domain.Booking, error) {
	resource, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !resource.IsPublished() {
		return nil, nil
	}

	unlock, err := s.lock(ctx, resource.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err := s.waitlist.ListActiveByResource(ctx, resource.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var promoted []domain.Booking
	for _, entry := range entries {
		if !entry.Start.After(now) {
			if err := s.waitlist.Cancel(ctx, entry.ID, now.UTC()); err != nil {
				return promoted, err
			}
			continue
		}

		occurrences, rule, err := recurrence.ExpandString(entry.Interval(), entry.RecurrenceRule, s.loc)
		if err != nil {
			s.logger.Warn("skip waitlist entry with bad recurrence",
				zap.Int64("entry_id", entry.ID), zap.Error(err))
			continue
		}
		conflicts, err := s.conflicts(ctx, resource, occurrences, 0, false)
		if err != nil {
			return promoted, err
		}
		if len(conflicts) > 0 {
			continue
		}

		pending := s.newBookings(resource, entry.RequesterID, occurrences, rule)
		err = s.bookings.CreatePromoted(ctx, pending, entry.ID, now.UTC())
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			continue
		}
		if err != nil {
			return promoted, err
		}
		created := derefBookings(pending)
		s.invalidateSearch(ctx)

		first := created[0]
		s.publish(ctx, kafka.EventBookingPromoted, &first)
		s.notify(ctx, entry.RequesterID, "Waitlist spot opened",
			fmt.Sprintf("Good news: %s on %s is now booked for you (%s).", resource.Title, s.formatWhen(first.Start), first.Status))
		promoted = append(promoted, created...)
	}
	return promoted, nil
}

// SweepWaitlists expires entries whose slot has started and retries
// promotion for every resource that still has a queue.
func (s *BookingService) SweepWaitlists(ctx context.Context) (int, error) {
	now := s.now().UTC()
	expired, err := s.waitlist.ExpireStartedBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, entry := range expired {
		s.notify(ctx, entry.RequesterID, "Waitlist entry expired",
			fmt.Sprintf("Your waitlist request for %s on %s expired without a free slot.", entry.ResourceTitle, s.formatWhen(entry.Start)))
	}

	resourceIDs, err := s.waitlist.ResourcesWithActive(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range resourceIDs {
		promoted, err := s.PromoteWaitlist(ctx, id)
		if err != nil {
			s.logger.Warn("promote waitlist", zap.Int64("resource_id", id), zap.Error(err))
			continue
		}
		total += len(promoted)
	}
	return total, nil
}

// promoteAfterRelease runs after a slot frees up. Failures are logged and
// left for the periodic sweep.
func (s *BookingService) promoteAfterRelease(ctx context.Context, resourceID int64) {
	promoted, err := s.PromoteWaitlist(ctx, resourceID)
	if err != nil {
		s.logger.Warn("promote waitlist after release", zap.Int64("resource_id", resourceID), zap.Error(err))
		return
	}
	if len(promoted) > 0 {
		s.logger.Info("waitlist promoted",
			zap.Int64("resource_id", resourceID), zap.Int("bookings", len(promoted)))
	}
}
