package resources

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/Domenick1991/campushub/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSearchCache struct {
	mock.Mock
}

func (m *MockSearchCache) GetSearch(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockSearchCache) SetSearch(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockSearchCache) InvalidateSearch(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAdminRecorder struct {
	mock.Mock
}

func (m *MockAdminRecorder) Record(ctx context.Context, adminID int64, action, table, details string) error {
	args := m.Called(ctx, adminID, action, table, details)
	return args.Error(0)
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *mocks.ResourceRepository
	bookings *mocks.BookingRepository
	reviews  *mocks.ReviewRepository
	cache    *MockSearchCache
	audit    *MockAdminRecorder
	service  *ResourceService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     &mocks.ResourceRepository{},
		bookings: &mocks.BookingRepository{},
		reviews:  &mocks.ReviewRepository{},
		cache:    &MockSearchCache{},
		audit:    &MockAdminRecorder{},
	}
	f.service = &ResourceService{
		repo:     f.repo,
		bookings: f.bookings,
		reviews:  f.reviews,
		cache:    f.cache,
		audit:    f.audit,
		pageSize: DefaultPageSize,
		now:      func() time.Time { return testNow },
		logger:   zap.NewNop(),
	}
	return f
}

var (
	student = &domain.User{ID: 1, Role: domain.RoleStudent}
	staff   = &domain.User{ID: 2, Role: domain.RoleStaff}
	admin   = &domain.User{ID: 3, Role: domain.RoleAdmin}
)

func makerLab() domain.Resource {
	return domain.Resource{
		ID:           7,
		OwnerID:      2,
		Title:        "Maker Lab 3D Printer",
		Category:     "Lab Equipment",
		Location:     "Luddy Hall",
		Equipment:    "Prusa MK4, filament",
		IsRestricted: true,
		Status:       domain.ResourceStatusPublished,
	}
}

func TestResourceService_Search_EnrichesAndCaches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	busy := []domain.Interval{{Start: testNow.Add(-time.Hour), End: testNow.Add(2 * time.Hour)}}

	f.cache.On("GetSearch", ctx, mock.Anything, mock.Anything).Return(false, nil).Once()
	f.repo.On("Search", ctx, mock.MatchedBy(func(filter repository.ResourceFilter) bool {
		return filter.Status == domain.ResourceStatusPublished && filter.Keyword == "printer" &&
			filter.Limit == DefaultPageSize && filter.Offset == 0 && filter.Sort == repository.SortNameAZ
	})).Return([]domain.Resource{makerLab()}, 1, nil).Once()
	f.reviews.On("Stats", ctx, []int64{7}).Return(map[int64]domain.RatingStats{7: {Average: 4.8, Count: 5}}, nil).Once()
	f.bookings.On("BusyIntervals", ctx, []int64{7}, testNow).Return(map[int64][]domain.Interval{7: busy}, nil).Once()
	f.cache.On("SetSearch", ctx, mock.Anything, mock.AnythingOfType("*resources.SearchPage")).Return(nil).Once()

	page, err := f.service.Search(ctx, student, SearchQuery{Keyword: " printer ", Sort: "name_az"})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	item := page.Items[0]
	assert.Equal(t, 1, page.Pages)
	assert.True(t, item.TopRated)
	assert.False(t, item.CanAccess)
	assert.Equal(t, []string{"Prusa MK4", "filament"}, item.Equipment)
	require.NotNil(t, item.NextAvailable)
	assert.Equal(t, testNow.Add(2*time.Hour), item.NextAvailable.Start)
	assert.Equal(t, "Available soon", item.NextAvailable.Label)
	assert.Nil(t, item.NextAvailable.End)
	f.cache.AssertExpectations(t)
}

func TestResourceService_Search_CacheHitRecomputesAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	lab := NewListing(&domain.Resource{ID: 7, OwnerID: 2, IsRestricted: true})

	f.cache.On("GetSearch", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(2).(*SearchPage) = SearchPage{Items: []Listing{lab}, Total: 1, Page: 1, Pages: 1}
		}).Return(true, nil).Once()

	page, err := f.service.Search(ctx, staff, SearchQuery{})

	require.NoError(t, err)
	assert.True(t, page.Items[0].CanAccess)
	f.repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestResourceService_Search_ClampsPastLastPage(t *testing.T) {
	f := newFixture()
	f.service.cache = nil
	ctx := context.Background()

	f.repo.On("Search", ctx, mock.MatchedBy(func(filter repository.ResourceFilter) bool { return filter.Offset == 45 })).
		Return([]domain.Resource{}, 12, nil).Once()
	f.repo.On("Search", ctx, mock.MatchedBy(func(filter repository.ResourceFilter) bool { return filter.Offset == 9 })).
		Return([]domain.Resource{makerLab()}, 12, nil).Once()
	f.reviews.On("Stats", ctx, []int64{7}).Return(map[int64]domain.RatingStats{}, nil).Once()
	f.bookings.On("BusyIntervals", ctx, []int64{7}, testNow).Return(map[int64][]domain.Interval{}, nil).Once()

	page, err := f.service.Search(ctx, nil, SearchQuery{Page: 6})

	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, "Open now", page.Items[0].NextAvailable.Label)
	f.repo.AssertExpectations(t)
}

func TestResourceService_Search_Validation(t *testing.T) {
	from := testNow
	until := testNow.Add(-time.Hour)

	testCases := []struct {
		name  string
		query SearchQuery
		field string
	}{
		{"bad category", SearchQuery{Category: "Boats"}, "category"},
		{"capacity too large", SearchQuery{MinCapacity: 10001}, "min_capacity"},
		{"half window", SearchQuery{AvailableFrom: &from}, "available_until"},
		{"inverted window", SearchQuery{AvailableFrom: &from, AvailableUntil: &until}, "available_until"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service.Search(context.Background(), nil, tc.query)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestResourceService_Filter_DraftsOnlyForOwners(t *testing.T) {
	s := newFixture().service

	f, err := s.filter(nil, SearchQuery{Status: domain.ResourceStatusDraft})
	require.NoError(t, err)
	assert.Equal(t, domain.ResourceStatusPublished, f.Status)

	f, err = s.filter(staff, SearchQuery{Status: domain.ResourceStatusDraft})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.OwnerID)

	f, err = s.filter(admin, SearchQuery{Status: domain.ResourceStatusDraft})
	require.NoError(t, err)
	assert.Zero(t, f.OwnerID)
}

func TestResourceService_Get_HidesDrafts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	draft := makerLab()
	draft.Status = domain.ResourceStatusDraft

	f.repo.On("GetByID", ctx, int64(7)).Return(&draft, nil)
	f.reviews.On("Stats", ctx, []int64{7}).Return(map[int64]domain.RatingStats{}, nil).Once()
	f.bookings.On("BusyIntervals", ctx, []int64{7}, testNow).Return(map[int64][]domain.Interval{}, nil).Once()

	_, err := f.service.Get(ctx, 7, student)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	listing, err := f.service.Get(ctx, 7, staff)
	require.NoError(t, err)
	assert.True(t, listing.CanAccess)
}

func TestResourceService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	capacity := 12

	f.repo.On("GetBySlug", ctx, "quiet-room-b").Return(&domain.Resource{ID: 1}, nil).Once()
	f.repo.On("GetBySlug", ctx, "quiet-room-b-2").Return(nil, domain.ErrNotFound).Once()
	f.repo.On("Create", ctx, mock.MatchedBy(func(r *domain.Resource) bool {
		return r.Slug == "quiet-room-b-2" && r.OwnerID == 2 && r.Equipment == "Whiteboard, TV" &&
			r.Title == "Quiet Room B" && r.Status == domain.ResourceStatusDraft
	})).Run(func(args mock.Arguments) { args.Get(1).(*domain.Resource).ID = 11 }).Return(nil).Once()
	f.cache.On("InvalidateSearch", ctx).Return(nil).Once()

	r, err := f.service.Create(ctx, staff, ResourceInput{
		Title:       "<b>Quiet Room B</b>",
		Description: "A quiet room for group study.",
		Category:    "Study Room",
		Location:    "Wells Library",
		Capacity:    &capacity,
		Equipment:   "Whiteboard\n TV ,",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), r.ID)
	f.repo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestResourceService_Create_Rules(t *testing.T) {
	valid := ResourceInput{
		Title:       "Quiet Room B",
		Description: "A quiet room for group study.",
		Category:    "Study Room",
		Location:    "Wells Library",
	}
	zero, big := 0, 1001

	testCases := []struct {
		name   string
		actor  *domain.User
		mutate func(in *ResourceInput)
		want   error
		field  string
	}{
		{name: "students cannot create", actor: student, want: domain.ErrForbidden},
		{name: "short title", actor: staff, mutate: func(in *ResourceInput) { in.Title = "ab" }, field: "title"},
		{name: "unknown category", actor: staff, mutate: func(in *ResourceInput) { in.Category = "Boats" }, field: "category"},
		{name: "short description", actor: staff, mutate: func(in *ResourceInput) { in.Description = "tiny" }, field: "description"},
		{name: "zero capacity", actor: staff, mutate: func(in *ResourceInput) { in.Capacity = &zero }, field: "capacity"},
		{name: "huge capacity", actor: staff, mutate: func(in *ResourceInput) { in.Capacity = &big }, field: "capacity"},
		{name: "archived on create", actor: staff, mutate: func(in *ResourceInput) { in.Status = domain.ResourceStatusArchived }, field: "status"},
		{name: "max below min", actor: staff, mutate: func(in *ResourceInput) { in.MinBookingMinutes, in.MaxBookingMinutes = 60, 30 }, field: "max_booking_minutes"},
		{name: "bad schedule", actor: staff, mutate: func(in *ResourceInput) {
			in.Schedule = domain.WeeklySchedule{"funday": {{Start: "08:00", End: "09:00"}}}
		}, field: "availability_schedule"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			in := valid
			if tc.mutate != nil {
				tc.mutate(&in)
			}
			_, err := f.service.Create(context.Background(), tc.actor, in)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				return
			}
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestResourceService_Update_AdminOverrideLogged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	lab := makerLab()

	f.repo.On("GetByID", ctx, int64(7)).Return(&lab, nil).Once()
	f.repo.On("Update", ctx, mock.MatchedBy(func(r *domain.Resource) bool {
		return r.Status == domain.ResourceStatusArchived && r.Slug == ""
	})).Return(nil).Once()
	f.cache.On("InvalidateSearch", ctx).Return(nil).Once()
	f.audit.On("Record", ctx, int64(3), "resource_update_override", "resources", mock.Anything).Return(nil).Once()

	_, err := f.service.Update(ctx, admin, 7, ResourceInput{
		Title:    lab.Title,
		Category: lab.Category,
		Location: lab.Location,
		Status:   domain.ResourceStatusArchived,
	})

	require.NoError(t, err)
	f.audit.AssertExpectations(t)
}

func TestResourceService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	lab := makerLab()

	f.repo.On("GetByID", ctx, int64(7)).Return(&lab, nil).Twice()
	f.repo.On("Delete", ctx, int64(7)).Return(nil).Once()
	f.cache.On("InvalidateSearch", ctx).Return(nil).Once()

	assert.ErrorIs(t, f.service.Delete(ctx, student, 7), domain.ErrForbidden)
	assert.NoError(t, f.service.Delete(ctx, staff, 7))
	f.audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResourceService_CategoryDistribution(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	counts := []repository.CategoryCount{
		{Category: "Study Room", Count: 5},
		{Category: "Lab Equipment", Count: 3},
		{Category: "Other", Count: 1},
	}
	f.repo.On("CategoryCounts", ctx, domain.ResourceStatusPublished).Return(counts, nil).Once()

	got, err := f.service.CategoryDistribution(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, counts[:2], got)
}

func TestCacheKey_StableAcrossCase(t *testing.T) {
	a := cacheKey(repository.ResourceFilter{Keyword: "Printer", Status: domain.ResourceStatusPublished}, 1)
	b := cacheKey(repository.ResourceFilter{Keyword: "printer", Status: domain.ResourceStatusPublished}, 1)
	c := cacheKey(repository.ResourceFilter{Keyword: "printer", Status: domain.ResourceStatusPublished}, 2)
	assert.Equal(t, a, b)
	assert.NotEqual(t, b, c)
}
