package resources

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/campushub/internal/availability"
	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/Domenick1991/campushub/internal/validate"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const DefaultPageSize = 9

type ResourceUseCase interface {
	Search(ctx context.Context, viewer *domain.User, q SearchQuery) (*SearchPage, error)
	Get(ctx context.Context, id int64, viewer *domain.User) (*Listing, error)
	GetBySlug(ctx context.Context, s string, viewer *domain.User) (*Listing, error)
	Create(ctx context.Context, actor *domain.User, input ResourceInput) (*domain.Resource, error)
	Update(ctx context.Context, actor *domain.User, id int64, input ResourceInput) (*domain.Resource, error)
	Delete(ctx context.Context, actor *domain.User, id int64) error
	CategoryDistribution(ctx context.Context, limit int) ([]repository.CategoryCount, error)
}

type SearchCache interface {
	GetSearch(ctx context.Context, key string, dest any) (bool, error)
	SetSearch(ctx context.Context, key string, value any) error
	InvalidateSearch(ctx context.Context) error
}

type AdminRecorder interface {
	Record(ctx context.Context, adminID int64, action, table, details string) error
}

type ResourceService struct {
	repo     repository.ResourceRepository
	bookings repository.BookingRepository
	reviews  repository.ReviewRepository
	cache    SearchCache
	audit    AdminRecorder
	pageSize int
	now      func() time.Time
	logger   *zap.Logger
}

type SearchQuery struct {
	Keyword        string
	Category       string
	Location       string
	MinCapacity    int
	AvailableFrom  *time.Time
	AvailableUntil *time.Time
	Status         domain.ResourceStatus
	Sort           string
	Page           int
}

type SearchPage struct {
	Items    []Listing `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	PageSize int       `json:"page_size"`
}

type ResourceInput struct {
	Title                   string
	Description             string
	Category                string
	Location                string
	Capacity                *int
	Equipment               string
	AvailabilityRules       string
	IsRestricted            bool
	Status                  domain.ResourceStatus
	Schedule                domain.WeeklySchedule
	MinBookingMinutes       int
	MaxBookingMinutes       int
	BookingIncrementMinutes int
	BufferMinutes           int
	AdvanceBookingDays      int
	MinLeadTimeHours        int
}

func NewResourceService(
	repo repository.ResourceRepository,
	bookings repository.BookingRepository,
	reviews repository.ReviewRepository,
	cache SearchCache,
	audit AdminRecorder,
	pageSize int,
	logger *zap.Logger,
) *ResourceService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{
		repo:     repo,
		bookings: bookings,
		reviews:  reviews,
		cache:    cache,
		audit:    audit,
		pageSize: pageSize,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *ResourceService) Search(ctx context.Context, viewer *domain.User, q SearchQuery) (*SearchPage, error) {
	filter, err := s.filter(viewer, q)
	if err != nil {
		return nil, err
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	key := cacheKey(filter, page)
	var cached SearchPage
	if s.cache != nil {
		hit, err := s.cache.GetSearch(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("read search cache", zap.Error(err))
		}
		if hit {
			s.applyAccess(viewer, cached.Items)
			return &cached, nil
		}
	}

	result, err := s.searchPage(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetSearch(ctx, key, result); err != nil {
			s.logger.Warn("write search cache", zap.Error(err))
		}
	}
	s.applyAccess(viewer, result.Items)
	return result, nil
}

func (s *ResourceService) filter(viewer *domain.User, q SearchQuery) (repository.ResourceFilter, error) {
	f := repository.ResourceFilter{
		Keyword:  strings.TrimSpace(q.Keyword),
		Location: strings.TrimSpace(q.Location),
		Status:   q.Status,
		Sort:     repository.SortRecent,
		Limit:    s.pageSize,
	}
	if q.Category != "" {
		if !domain.ValidCategory(q.Category) {
			return f, domain.NewValidationError("category", "unknown category")
		}
		f.Category = q.Category
	}
	if q.MinCapacity != 0 {
		if err := validate.IntRange("min_capacity", q.MinCapacity, 1, 10000); err != nil {
			return f, err
		}
		f.MinCapacity = q.MinCapacity
	}
	if (q.AvailableFrom == nil) != (q.AvailableUntil == nil) {
		return f, domain.NewValidationError("available_until", "both ends of the availability window are required")
	}
	if q.AvailableFrom != nil {
		if !q.AvailableUntil.After(*q.AvailableFrom) {
			return f, domain.NewValidationError("available_until", "end must be after start")
		}
		from, until := q.AvailableFrom.UTC(), q.AvailableUntil.UTC()
		f.AvailableFrom, f.AvailableUntil = &from, &until
	}
	if q.Sort != "" && repository.ValidSort(q.Sort) {
		f.Sort = repository.ResourceSort(q.Sort)
	}

	if f.Status == "" {
		f.Status = domain.ResourceStatusPublished
	}
	if f.Status != domain.ResourceStatusPublished && !viewer.IsAdmin() {
		if viewer == nil {
			f.Status = domain.ResourceStatusPublished
		} else {
			f.OwnerID = viewer.ID
		}
	}
	return f, nil
}

// searchPage loads one page, clamping a page past the end to the last one.
func (s *ResourceService) searchPage(ctx context.Context, f repository.ResourceFilter, page int) (*SearchPage, error) {
	f.Offset = (page - 1) * f.Limit
	items, total, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	pages := int(math.Ceil(float64(total) / float64(f.Limit)))
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
		f.Offset = (page - 1) * f.Limit
		if items, total, err = s.repo.Search(ctx, f); err != nil {
			return nil, err
		}
	}

	listings, err := s.enrich(ctx, items)
	if err != nil {
		return nil, err
	}
	return &SearchPage{Items: listings, Total: total, Page: page, Pages: pages, PageSize: f.Limit}, nil
}

// enrich attaches ratings and the next free window to each resource.
func (s *ResourceService) enrich(ctx context.Context, items []domain.Resource) ([]Listing, error) {
	listings := make([]Listing, 0, len(items))
	if len(items) == 0 {
		return listings, nil
	}
	ids := make([]int64, 0, len(items))
	for i := range items {
		ids = append(ids, items[i].ID)
	}

	stats, err := s.reviews.Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	busy, err := s.bookings.BusyIntervals(ctx, ids, now)
	if err != nil {
		return nil, err
	}

	for i := range items {
		l := NewListing(&items[i])
		l.applyRating(stats[items[i].ID])
		l.applyBusy(now, busy[items[i].ID])
		listings = append(listings, l)
	}
	return listings, nil
}

func (s *ResourceService) applyAccess(viewer *domain.User, items []Listing) {
	for i := range items {
		items[i].CanAccess = CanAccess(viewer, items[i])
	}
}

func cacheKey(f repository.ResourceFilter, page int) string {
	v := url.Values{}
	v.Set("q", strings.ToLower(f.Keyword))
	v.Set("c", f.Category)
	v.Set("l", strings.ToLower(f.Location))
	v.Set("s", string(f.Status))
	v.Set("o", string(f.Sort))
	v.Set("p", strconv.Itoa(page))
	if f.MinCapacity > 0 {
		v.Set("cap", strconv.Itoa(f.MinCapacity))
	}
	if f.OwnerID > 0 {
		v.Set("own", strconv.FormatInt(f.OwnerID, 10))
	}
	if f.AvailableFrom != nil {
		v.Set("af", f.AvailableFrom.Format(time.RFC3339))
		v.Set("au", f.AvailableUntil.Format(time.RFC3339))
	}
	return v.Encode()
}

func (s *ResourceService) Get(ctx context.Context, id int64, viewer *domain.User) (*Listing, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, r, viewer)
}

func (s *ResourceService) GetBySlug(ctx context.Context, value string, viewer *domain.User) (*Listing, error) {
	r, err := s.repo.GetBySlug(ctx, slug.Make(value))
	if err != nil {
		return nil, err
	}
	return s.view(ctx, r, viewer)
}

func (s *ResourceService) view(ctx context.Context, r *domain.Resource, viewer *domain.User) (*Listing, error) {
	if !r.IsPublished() && !viewer.CanManageResource(r) {
		return nil, fmt.Errorf("resource %d: %w", r.ID, domain.ErrNotFound)
	}
	listings, err := s.enrich(ctx, []domain.Resource{*r})
	if err != nil {
		return nil, err
	}
	s.applyAccess(viewer, listings)
	return &listings[0], nil
}

func (s *ResourceService) Create(ctx context.Context, actor *domain.User, input ResourceInput) (*domain.Resource, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if input.Status == "" {
		input.Status = domain.ResourceStatusDraft
	}
	if input.Status == domain.ResourceStatusArchived {
		return nil, domain.NewValidationError("status", "new resources must be draft or published")
	}
	r := &domain.Resource{OwnerID: actor.ID}
	if err := apply(r, input, true); err != nil {
		return nil, err
	}
	var err error
	if r.Slug, err = s.uniqueSlug(ctx, r.Title, 0); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("resource created", zap.Int64("resource_id", r.ID), zap.Int64("owner_id", r.OwnerID))
	return r, nil
}

func (s *ResourceService) Update(ctx context.Context, actor *domain.User, id int64, input ResourceInput) (*domain.Resource, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageResource(r) {
		return nil, domain.ErrForbidden
	}
	if input.Status == "" {
		input.Status = r.Status
	}
	titleChanged := strings.TrimSpace(input.Title) != r.Title
	if err := apply(r, input, false); err != nil {
		return nil, err
	}
	if titleChanged {
		if r.Slug, err = s.uniqueSlug(ctx, r.Title, r.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.recordOverride(ctx, actor, r, "resource_update_override")
	return r, nil
}

func (s *ResourceService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManageResource(r) {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.recordOverride(ctx, actor, r, "resource_delete_override")
	return nil
}

func (s *ResourceService) CategoryDistribution(ctx context.Context, limit int) ([]repository.CategoryCount, error) {
	counts, err := s.repo.CategoryCounts(ctx, domain.ResourceStatusPublished)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// uniqueSlug appends -2, -3, ... until the slug is free or owned by selfID.
func (s *ResourceService) uniqueSlug(ctx context.Context, title string, selfID int64) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "resource"
	}
	candidate := base
	for n := 2; n < 100; n++ {
		existing, err := s.repo.GetBySlug(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == selfID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("%w: no free slug for %q", domain.ErrConflict, title)
}

func (s *ResourceService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSearch(ctx); err != nil {
		s.logger.Warn("invalidate search cache", zap.Error(err))
	}
}

func (s *ResourceService) recordOverride(ctx context.Context, actor *domain.User, r *domain.Resource, action string) {
	if s.audit == nil || !actor.IsAdmin() || r.OwnerID == actor.ID {
		return
	}
	details := fmt.Sprintf("resource %d (%s) owned by user %d", r.ID, r.Title, r.OwnerID)
	if err := s.audit.Record(ctx, actor.ID, action, "resources", details); err != nil {
		s.logger.Warn("record admin override", zap.String("action", action), zap.Error(err))
	}
}

// apply validates input and copies it onto r.
func apply(r *domain.Resource, in ResourceInput, creating bool) error {
	title := validate.Sanitize(in.Title)
	if err := validate.Length("title", title, 3, 200); err != nil {
		return err
	}
	if !domain.ValidCategory(in.Category) {
		return domain.NewValidationError("category", "unknown category")
	}
	location := validate.Sanitize(in.Location)
	if err := validate.Length("location", location, 2, 255); err != nil {
		return err
	}
	description := validate.Sanitize(in.Description)
	minDescription := 0
	if creating {
		minDescription = 10
	}
	if err := validate.Length("description", description, minDescription, 5000); err != nil {
		return err
	}
	if in.Capacity != nil {
		if err := validate.IntRange("capacity", *in.Capacity, 1, 1000); err != nil {
			return err
		}
	}
	switch in.Status {
	case domain.ResourceStatusDraft, domain.ResourceStatusPublished, domain.ResourceStatusArchived:
	default:
		return domain.NewValidationError("status", "unknown status")
	}
	if err := checkConstraints(in); err != nil {
		return err
	}
	if len(in.Schedule) > 0 {
		if _, err := availability.FromWeekly(in.Schedule); err != nil {
			return err
		}
	}

	r.Title = title
	r.Category = in.Category
	r.Location = location
	r.Description = description
	r.Capacity = in.Capacity
	r.Equipment = validate.NormalizeEquipment(validate.Sanitize(in.Equipment))
	r.AvailabilityRules = validate.Sanitize(in.AvailabilityRules)
	r.IsRestricted = in.IsRestricted
	r.Status = in.Status
	r.Schedule = in.Schedule
	r.MinBookingMinutes = in.MinBookingMinutes
	r.MaxBookingMinutes = in.MaxBookingMinutes
	r.BookingIncrementMinutes = in.BookingIncrementMinutes
	r.BufferMinutes = in.BufferMinutes
	r.AdvanceBookingDays = in.AdvanceBookingDays
	r.MinLeadTimeHours = in.MinLeadTimeHours
	return nil
}

func checkConstraints(in ResourceInput) error {
	limits := []struct {
		field string
		value int
		max   int
	}{
		{"min_booking_minutes", in.MinBookingMinutes, 24 * 60},
		{"max_booking_minutes", in.MaxBookingMinutes, 14 * 24 * 60},
		{"booking_increment_minutes", in.BookingIncrementMinutes, 24 * 60},
		{"buffer_minutes", in.BufferMinutes, 24 * 60},
		{"advance_booking_days", in.AdvanceBookingDays, 365},
		{"min_lead_time_hours", in.MinLeadTimeHours, 24 * 30},
	}
	for _, l := range limits {
		if err := validate.IntRange(l.field, l.value, 0, l.max); err != nil {
			return err
		}
	}
	if in.MinBookingMinutes > 0 && in.MaxBookingMinutes > 0 && in.MaxBookingMinutes < in.MinBookingMinutes {
		return domain.NewValidationError("max_booking_minutes", "must be at least the minimum booking length")
	}
	return nil
}

var _ ResourceUseCase = (*ResourceService)(nil)
