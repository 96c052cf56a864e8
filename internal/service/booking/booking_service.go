package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/campushub/internal/availability"
	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/kafka"
	"github.com/Domenick1991/campushub/internal/recurrence"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrResourceBusy = fmt.Errorf("%w: resource is being booked by someone else, try again", domain.ErrConflict)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	ApproveBooking(ctx context.Context, input DecisionInput) (*domain.Booking, error)
	RejectBooking(ctx context.Context, input DecisionInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error)
	ListMyBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListResourceBookings(ctx context.Context, resourceID, actorID int64) ([]domain.Booking, error)
	PendingForOwner(ctx context.Context, ownerID int64) ([]domain.Booking, error)
	DashboardStats(ctx context.Context, userID int64) (domain.BookingStats, error)
	CompletePastBookings(ctx context.Context) ([]domain.Booking, error)
	WaitlistUseCase
}

type Cache interface {
	AcquireResourceLock(ctx context.Context, resourceID int64, ttl time.Duration) (string, bool, error)
	ReleaseResourceLock(ctx context.Context, resourceID int64, token string) error
	InvalidateSearch(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Notifier delivers a message to a user's inbox.
type Notifier interface {
	Notify(ctx context.Context, userID int64, subject, body string) error
}

// AdminRecorder writes the audit trail for admin overrides.
type AdminRecorder interface {
	Record(ctx context.Context, adminID int64, action, table, details string) error
}

type BookingService struct {
	bookings     repository.BookingRepository
	waitlist     repository.WaitlistRepository
	resources    repository.ResourceRepository
	users        repository.UserRepository
	cache        Cache
	producer     Producer
	notifier     Notifier
	audit        AdminRecorder
	bookingTopic string
	lockTTL      time.Duration
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

type CreateBookingInput struct {
	ResourceID     int64
	RequesterID    int64
	Start          time.Time
	End            time.Time
	RecurrenceRule string
	JoinWaitlist   bool
}

type CreateBookingResult struct {
	Bookings   []domain.Booking
	Waitlisted *domain.WaitlistEntry
}

type DecisionInput struct {
	BookingID int64
	ActorID   int64
	Notes     string
}

type BookingServiceOption func(*BookingService)

func WithNotifier(n Notifier) BookingServiceOption {
	return func(s *BookingService) {
		s.notifier = n
	}
}

func WithAdminRecorder(a AdminRecorder) BookingServiceOption {
	return func(s *BookingService) {
		s.audit = a
	}
}

func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(l *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	waitlist repository.WaitlistRepository,
	resources repository.ResourceRepository,
	users repository.UserRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	lockTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		waitlist:     waitlist,
		resources:    resources,
		users:        users,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		lockTTL:      lockTTL,
		loc:          time.UTC,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	requester, resource, occurrences, rule, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, resource.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conflicts, err := s.conflicts(ctx, resource, occurrences, 0, false)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		if !input.JoinWaitlist {
			return nil, &domain.ConflictError{BookingIDs: domain.BookingIDs(conflicts)}
		}
		entry, err := s.enqueue(ctx, input, occurrences[0], rule)
		if err != nil {
			return nil, err
		}
		return &CreateBookingResult{Waitlisted: entry}, nil
	}

	created, err := s.insert(ctx, resource, requester.ID, occurrences, rule)
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) && input.JoinWaitlist {
		entry, err := s.enqueue(ctx, input, occurrences[0], rule)
		if err != nil {
			return nil, err
		}
		return &CreateBookingResult{Waitlisted: entry}, nil
	}
	if err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)

	first := created[0]
	s.publish(ctx, kafka.EventBookingCreated, &first)
	if first.Status == domain.BookingStatusPending {
		s.notify(ctx, requester.ID, "Booking request submitted",
			fmt.Sprintf("Your request for %s on %s is awaiting approval.", resource.Title, s.formatWhen(first.Start)))
		s.notify(ctx, resource.OwnerID, "New booking request",
			fmt.Sprintf("%s requested %s on %s.", requester.Name, resource.Title, s.formatWhen(first.Start)))
	} else {
		s.notify(ctx, requester.ID, "Booking confirmed",
			fmt.Sprintf("Your booking for %s on %s is confirmed.", resource.Title, s.formatWhen(first.Start)))
	}
	return &CreateBookingResult{Bookings: created}, nil
}

// prepare loads the parties and validates every occurrence of the request.
func (s *BookingService) prepare(ctx context.Context, input CreateBookingInput) (*domain.User, *domain.Resource, []domain.Interval, *recurrence.Rule, error) {
	requester, err := s.activeUser(ctx, input.RequesterID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	resource, err := s.resources.GetByID(ctx, input.ResourceID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if !resource.IsPublished() {
		return nil, nil, nil, nil, fmt.Errorf("resource %d: %w", resource.ID, domain.ErrNotFound)
	}

	first := domain.Interval{Start: input.Start.UTC(), End: input.End.UTC()}
	occurrences, rule, err := recurrence.ExpandString(first, input.RecurrenceRule, s.loc)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	now := s.now()
	for _, occ := range occurrences {
		if err := s.checkConstraints(resource, occ, now); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if domain.AnyOverlap(occurrences, resource.Buffer()) {
		return nil, nil, nil, nil, domain.NewValidationError("recurrence_rule", "repeated occurrences overlap each other")
	}
	return requester, resource, occurrences, rule, nil
}

func (s *BookingService) checkConstraints(r *domain.Resource, iv domain.Interval, now time.Time) error {
	if !iv.End.After(iv.Start) {
		return domain.NewValidationError("end", "end time must be after start time")
	}
	if iv.Start.Before(now) {
		return domain.NewValidationError("start", "start time must be in the future")
	}
	minutes := int(iv.Duration() / time.Minute)
	if r.MinBookingMinutes > 0 && minutes < r.MinBookingMinutes {
		return domain.NewValidationError("end", fmt.Sprintf("bookings must last at least %d minutes", r.MinBookingMinutes))
	}
	if r.MaxBookingMinutes > 0 && minutes > r.MaxBookingMinutes {
		return domain.NewValidationError("end", fmt.Sprintf("bookings may last at most %d minutes", r.MaxBookingMinutes))
	}
	if r.BookingIncrementMinutes > 0 && minutes%r.BookingIncrementMinutes != 0 {
		return domain.NewValidationError("end", fmt.Sprintf("duration must be a multiple of %d minutes", r.BookingIncrementMinutes))
	}
	if r.MinLeadTimeHours > 0 && iv.Start.Before(now.Add(time.Duration(r.MinLeadTimeHours)*time.Hour)) {
		return domain.NewValidationError("start", fmt.Sprintf("bookings require %d hours notice", r.MinLeadTimeHours))
	}
	if r.AdvanceBookingDays > 0 && iv.Start.After(now.AddDate(0, 0, r.AdvanceBookingDays)) {
		return domain.NewValidationError("start", fmt.Sprintf("bookings open at most %d days ahead", r.AdvanceBookingDays))
	}
	if len(r.Schedule) > 0 {
		schedule, err := availability.FromWeekly(r.Schedule)
		if err != nil {
			return err
		}
		if !schedule.Contains(iv.Start.In(s.loc), iv.End.In(s.loc)) {
			return domain.NewValidationError("start", "requested time is outside the resource's opening hours")
		}
	}
	return nil
}

// conflicts loads active bookings around the candidates and returns the
// ones that collide, honouring the resource buffer.
func (s *BookingService) conflicts(ctx context.Context, r *domain.Resource, candidates []domain.Interval, excludeID int64, approvedOnly bool) ([]domain.Booking, error) {
	span := domain.Span(candidates)
	buffer := r.Buffer()
	existing, err := s.bookings.ListActiveOverlapping(ctx, r.ID, span.Start.Add(-buffer), span.End.Add(buffer))
	if err != nil {
		return nil, err
	}
	if approvedOnly {
		filtered := existing[:0:0]
		for _, b := range existing {
			if b.Status == domain.BookingStatusApproved {
				filtered = append(filtered, b)
			}
		}
		existing = filtered
	}
	return domain.FindConflicts(existing, candidates, buffer, excludeID), nil
}

func (s *BookingService) insert(ctx context.Context, r *domain.Resource, requesterID int64, occurrences []domain.Interval, rule *recurrence.Rule) ([]domain.Booking, error) {
	pending := s.newBookings(r, requesterID, occurrences, rule)
	if err := s.bookings.CreateMany(ctx, pending); err != nil {
		return nil, err
	}
	return derefBookings(pending), nil
}

func (s *BookingService) newBookings(r *domain.Resource, requesterID int64, occurrences []domain.Interval, rule *recurrence.Rule) []*domain.Booking {
	status := r.InitialBookingStatus()
	pending := make([]*domain.Booking, 0, len(occurrences))
	for _, occ := range occurrences {
		pending = append(pending, &domain.Booking{
			Token:          uuid.NewString(),
			ResourceID:     r.ID,
			RequesterID:    requesterID,
			Start:          occ.Start,
			End:            occ.End,
			Status:         status,
			RecurrenceRule: rule.String(),
			ResourceTitle:  r.Title,
		})
	}
	return pending
}

func derefBookings(pending []*domain.Booking) []domain.Booking {
	created := make([]domain.Booking, 0, len(pending))
	for _, b := range pending {
		created = append(created, *b)
	}
	return created
}

func (s *BookingService) ApproveBooking(ctx context.Context, input DecisionInput) (*domain.Booking, error) {
	current, resource, actor, err := s.loadForDecision(ctx, input)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending {
		return nil, fmt.Errorf("booking is %s: %w", current.Status, domain.ErrInvalidTransition)
	}

	unlock, err := s.lock(ctx, resource.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conflicts, err := s.conflicts(ctx, resource, []domain.Interval{current.Interval()}, current.ID, true)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &domain.ConflictError{BookingIDs: domain.BookingIDs(conflicts)}
	}

	updated, err := s.bookings.Transition(ctx, current.ID, domain.BookingStatusPending, domain.BookingStatusApproved, s.decision(actor, input.Notes))
	if err != nil {
		return nil, err
	}
	s.recordOverride(ctx, actor, resource, "booking_approve_override", updated)
	s.publish(ctx, kafka.EventBookingApproved, updated)
	s.notify(ctx, updated.RequesterID, "Booking approved",
		withNotes(fmt.Sprintf("Your booking for %s on %s was approved.", resource.Title, s.formatWhen(updated.Start)), input.Notes))
	return updated, nil
}

func (s *BookingService) RejectBooking(ctx context.Context, input DecisionInput) (*domain.Booking, error) {
	current, resource, actor, err := s.loadForDecision(ctx, input)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending {
		return nil, fmt.Errorf("booking is %s: %w", current.Status, domain.ErrInvalidTransition)
	}

	updated, err := s.bookings.Transition(ctx, current.ID, domain.BookingStatusPending, domain.BookingStatusRejected, s.decision(actor, input.Notes))
	if err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)
	s.recordOverride(ctx, actor, resource, "booking_reject_override", updated)
	s.publish(ctx, kafka.EventBookingRejected, updated)
	s.notify(ctx, updated.RequesterID, "Booking rejected",
		withNotes(fmt.Sprintf("Your booking for %s on %s was declined.", resource.Title, s.formatWhen(updated.Start)), input.Notes))
	s.promoteAfterRelease(ctx, resource.ID)
	return updated, nil
}

// CancelBooking is idempotent for already cancelled bookings.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	actor, err := s.activeUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	resource, err := s.resources.GetByID(ctx, current.ResourceID)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewBooking(current, resource) {
		return nil, domain.ErrForbidden
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	if !current.Status.CanTransitionTo(domain.BookingStatusCancelled) {
		return nil, fmt.Errorf("booking is %s: %w", current.Status, domain.ErrInvalidTransition)
	}

	updated, err := s.bookings.Transition(ctx, current.ID, current.Status, domain.BookingStatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)
	s.publish(ctx, kafka.EventBookingCancelled, updated)
	if actor.ID == updated.RequesterID {
		s.notify(ctx, resource.OwnerID, "Booking cancelled",
			fmt.Sprintf("%s cancelled their booking for %s on %s.", actor.Name, resource.Title, s.formatWhen(updated.Start)))
	} else {
		s.recordOverride(ctx, actor, resource, "booking_cancel_override", updated)
		s.notify(ctx, updated.RequesterID, "Booking cancelled",
			fmt.Sprintf("Your booking for %s on %s was cancelled by %s.", resource.Title, s.formatWhen(updated.Start), actor.Name))
	}
	s.promoteAfterRelease(ctx, resource.ID)
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if b.RequesterID == actor.ID {
		return b, nil
	}
	resource, err := s.resources.GetByID(ctx, b.ResourceID)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewBooking(b, resource) {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

func (s *BookingService) ListMyBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByRequester(ctx, userID)
}

func (s *BookingService) ListResourceBookings(ctx context.Context, resourceID, actorID int64) ([]domain.Booking, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	resource, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageResource(resource) {
		return nil, domain.ErrForbidden
	}
	return s.bookings.ListByResource(ctx, resourceID)
}

func (s *BookingService) PendingForOwner(ctx context.Context, ownerID int64) ([]domain.Booking, error) {
	return s.bookings.ListPendingForOwner(ctx, ownerID)
}

func (s *BookingService) DashboardStats(ctx context.Context, userID int64) (domain.BookingStats, error) {
	return s.bookings.StatsForUser(ctx, userID, s.now())
}

func (s *BookingService) CompletePastBookings(ctx context.Context) ([]domain.Booking, error) {
	completed, err := s.bookings.CompleteEndedBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if len(completed) > 0 {
		s.invalidateSearch(ctx)
	}
	for i := range completed {
		s.publish(ctx, kafka.EventBookingCompleted, &completed[i])
	}
	return completed, nil
}

func (s *BookingService) loadForDecision(ctx context.Context, input DecisionInput) (*domain.Booking, *domain.Resource, *domain.User, error) {
	current, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, nil, nil, err
	}
	actor, err := s.activeUser(ctx, input.ActorID)
	if err != nil {
		return nil, nil, nil, err
	}
	resource, err := s.resources.GetByID(ctx, current.ResourceID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !actor.CanManageResource(resource) {
		return nil, nil, nil, domain.ErrForbidden
	}
	return current, resource, actor, nil
}

func (s *BookingService) activeUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if u.IsSuspended {
		return nil, domain.ErrSuspended
	}
	return u, nil
}

func (s *BookingService) decision(actor *domain.User, notes string) *repository.Decision {
	return &repository.Decision{By: actor.ID, Notes: notes, At: s.now().UTC()}
}

// lock serializes conflict checks per resource. Without a cache it is a
// no-op and the repository's transaction guard is the only serialisation.
func (s *BookingService) lock(ctx context.Context, resourceID int64) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}
	token, ok, err := s.cache.AcquireResourceLock(ctx, resourceID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire resource lock: %w", err)
	}
	if !ok {
		return nil, ErrResourceBusy
	}
	return func() {
		if err := s.cache.ReleaseResourceLock(context.WithoutCancel(ctx), resourceID, token); err != nil {
			s.logger.Warn("release resource lock", zap.Int64("resource_id", resourceID), zap.Error(err))
		}
	}, nil
}

// invalidateSearch drops cached search pages after booking changes so the
// availability filter and next free windows are recomputed.
func (s *BookingService) invalidateSearch(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSearch(ctx); err != nil {
		s.logger.Warn("invalidate search cache", zap.Error(err))
	}
}

func (s *BookingService) recordOverride(ctx context.Context, actor *domain.User, resource *domain.Resource, action string, b *domain.Booking) {
	if s.audit == nil || !actor.IsAdmin() || resource.OwnerID == actor.ID {
		return
	}
	details := fmt.Sprintf("booking %d on resource %d (%s) -> %s", b.ID, resource.ID, resource.Title, b.Status)
	if err := s.audit.Record(ctx, actor.ID, action, "bookings", details); err != nil {
		s.logger.Warn("record admin override", zap.String("action", action), zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, b, s.now().UTC())
	if err := s.producer.Publish(ctx, s.bookingTopic, b.Token, event); err != nil {
		s.logger.Warn("failed to publish booking event",
			zap.String("type", eventType), zap.Int64("booking_id", b.ID), zap.Error(err))
	}
}

func (s *BookingService) notify(ctx context.Context, userID int64, subject, body string) {
	if s.notifier == nil || userID == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, userID, subject, body); err != nil {
		s.logger.Warn("notify user", zap.Int64("user_id", userID), zap.String("subject", subject), zap.Error(err))
	}
}

func (s *BookingService) formatWhen(t time.Time) string {
	return t.In(s.loc).Format("Mon Jan 2, 3:04 PM")
}

func withNotes(body, notes string) string {
	if notes == "" {
		return body
	}
	return body + " Notes: " + notes
}

var _ BookingUseCase = (*BookingService)(nil)
