package reviews

import (
	"context"
	"fmt"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/Domenick1991/campushub/internal/validate"
	"go.uber.org/zap"
)

type ReviewUseCase interface {
	Create(ctx context.Context, input CreateReviewInput) (*domain.Review, error)
	ListByResource(ctx context.Context, resourceID int64) ([]domain.Review, domain.RatingStats, error)
	Flag(ctx context.Context, reviewID, actorID int64, reason string) error
	Hide(ctx context.Context, reviewID, adminID int64) error
}

type AdminRecorder interface {
	Record(ctx context.Context, adminID int64, action, table, details string) error
}

type CreateReviewInput struct {
	ResourceID int64
	ReviewerID int64
	Rating     int
	Comment    string
}

type ReviewService struct {
	reviews   repository.ReviewRepository
	bookings  repository.BookingRepository
	resources repository.ResourceRepository
	users     repository.UserRepository
	audit     AdminRecorder
	logger    *zap.Logger
}

func NewReviewService(
	reviews repository.ReviewRepository,
	bookings repository.BookingRepository,
	resources repository.ResourceRepository,
	users repository.UserRepository,
	audit AdminRecorder,
	logger *zap.Logger,
) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		reviews:   reviews,
		bookings:  bookings,
		resources: resources,
		users:     users,
		audit:     audit,
		logger:    logger,
	}
}

// Create accepts one review per reviewer and resource, and only after the
// reviewer has completed a booking there.
func (s *ReviewService) Create(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if err := validate.IntRange("rating", input.Rating, 1, 5); err != nil {
		return nil, err
	}
	comment := validate.Sanitize(input.Comment)
	if err := validate.Length("comment", comment, 0, 2000); err != nil {
		return nil, err
	}
	reviewer, err := s.users.GetByID(ctx, input.ReviewerID)
	if err != nil {
		return nil, err
	}
	if reviewer.IsSuspended {
		return nil, domain.ErrSuspended
	}
	if _, err := s.resources.GetByID(ctx, input.ResourceID); err != nil {
		return nil, err
	}
	done, err := s.bookings.HasCompleted(ctx, reviewer.ID, input.ResourceID)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, fmt.Errorf("%w: only users with a completed booking may review this resource", domain.ErrForbidden)
	}

	review := &domain.Review{
		ResourceID:   input.ResourceID,
		ReviewerID:   reviewer.ID,
		ReviewerName: reviewer.Name,
		Rating:       input.Rating,
		Comment:      comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListByResource(ctx context.Context, resourceID int64) ([]domain.Review, domain.RatingStats, error) {
	list, err := s.reviews.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, domain.RatingStats{}, err
	}
	stats, err := s.reviews.Stats(ctx, []int64{resourceID})
	if err != nil {
		return nil, domain.RatingStats{}, err
	}
	return list, stats[resourceID], nil
}

func (s *ReviewService) Flag(ctx context.Context, reviewID, actorID int64, reason string) error {
	if _, err := s.users.GetByID(ctx, actorID); err != nil {
		return err
	}
	reason = validate.Sanitize(reason)
	if reason == "" {
		reason = "Inappropriate content"
	}
	if err := validate.Length("reason", reason, 0, 255); err != nil {
		return err
	}
	return s.reviews.Flag(ctx, reviewID, reason)
}

func (s *ReviewService) Hide(ctx context.Context, reviewID, adminID int64) error {
	actor, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.reviews.Hide(ctx, reviewID); err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, actor.ID, "hide_review", "reviews", fmt.Sprintf("review %d hidden", reviewID)); err != nil {
			s.logger.Warn("record hide review", zap.Error(err))
		}
	}
	return nil
}

var _ ReviewUseCase = (*ReviewService)(nil)
