package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/Domenick1991/campushub/internal/service/resources"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tidwall/gjson"
)

type MockResourceUseCase struct {
	mock.Mock
}

func (m *MockResourceUseCase) Search(ctx context.Context, viewer *domain.User, q resources.SearchQuery) (*resources.SearchPage, error) {
	args := m.Called(ctx, viewer, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resources.SearchPage), args.Error(1)
}

func (m *MockResourceUseCase) Get(ctx context.Context, id int64, viewer *domain.User) (*resources.Listing, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resources.Listing), args.Error(1)
}

func (m *MockResourceUseCase) GetBySlug(ctx context.Context, s string, viewer *domain.User) (*resources.Listing, error) {
	args := m.Called(ctx, s, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resources.Listing), args.Error(1)
}

func (m *MockResourceUseCase) Create(ctx context.Context, actor *domain.User, input resources.ResourceInput) (*domain.Resource, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

func (m *MockResourceUseCase) Update(ctx context.Context, actor *domain.User, id int64, input resources.ResourceInput) (*domain.Resource, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

func (m *MockResourceUseCase) Delete(ctx context.Context, actor *domain.User, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockResourceUseCase) CategoryDistribution(ctx context.Context, limit int) ([]repository.CategoryCount, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]repository.CategoryCount), args.Error(1)
}

func TestResourceHandler_search(t *testing.T) {
	mockService := &MockResourceUseCase{}
	handler := NewResourceHandler(mockService)

	c, w := newTestContext(http.MethodGet,
		"/api/v1/resources?q=quiet&category=Study+Room&min_capacity=4&available_from=2026-03-02T14:00:00Z&available_until=2026-03-02T16:00:00Z&sort=name_az&page=2",
		nil, testStudent)

	from := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	until := from.Add(2 * time.Hour)
	mockService.On("Search", c.Request.Context(), testStudent, mock.MatchedBy(func(q resources.SearchQuery) bool {
		return q.Keyword == "quiet" && q.Category == "Study Room" && q.MinCapacity == 4 &&
			q.AvailableFrom != nil && q.AvailableFrom.Equal(from) &&
			q.AvailableUntil != nil && q.AvailableUntil.Equal(until) &&
			q.Sort == "name_az" && q.Page == 2
	})).Return(&resources.SearchPage{
		Items:    []resources.Listing{{ID: 11, Title: "Study Room A", Category: "Study Room"}},
		Total:    10,
		Page:     2,
		Pages:    2,
		PageSize: 9,
	}, nil)

	handler.search(c)

	assert.Equal(t, http.StatusOK, w.Code)
	res := gjson.ParseBytes(w.Body.Bytes())
	assert.Equal(t, "Study Room A", res.Get("items.0.title").String())
	assert.Equal(t, int64(10), res.Get("total").Int())
	mockService.AssertExpectations(t)
}

func TestResourceHandler_search_BadTime(t *testing.T) {
	mockService := &MockResourceUseCase{}
	handler := NewResourceHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/resources?available_from=tomorrow", nil, nil)

	handler.search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "available_from", gjson.GetBytes(w.Body.Bytes(), "field").String())
	mockService.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestResourceHandler_search_UnknownCategory(t *testing.T) {
	mockService := &MockResourceUseCase{}
	handler := NewResourceHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/resources?category=Spaceship", nil, nil)

	handler.search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResourceHandler_get_NotFound(t *testing.T) {
	mockService := &MockResourceUseCase{}
	handler := NewResourceHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/resources/99", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	mockService.On("Get", c.Request.Context(), int64(99), (*domain.User)(nil)).Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestResourceHandler_create(t *testing.T) {
	mockService := &MockResourceUseCase{}
	handler := NewResourceHandler(mockService)

	capacity := 6
	body, _ := json.Marshal(map[string]any{
		"title":       "Study Room A",
		"description": "Quiet room with a whiteboard.",
		"category":    "Study Room",
		"location":    "Wells Library",
		"capacity":    capacity,
		"status":      "published",
	})
	c, w := newTestContext(http.MethodPost, "/api/v1/resources", body, testStaff)

	mockService.On("Create", c.Request.Context(), testStaff, mock.MatchedBy(func(in resources.ResourceInput) bool {
		return in.Title == "Study Room A" && in.Capacity != nil && *in.Capacity == 6 && in.Status == domain.ResourceStatusPublished
	})).Return(&domain.Resource{ID: 11, Title: "Study Room A", Slug: "study-room-a", Category: "Study Room", Status: domain.ResourceStatusPublished}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "study-room-a", gjson.GetBytes(w.Body.Bytes(), "slug").String())
	mockService.AssertExpectations(t)
}

func TestResourceHandler_create_BlankTitle(t *testing.T) {
	mockService := &MockResourceUseCase{}
	handler := NewResourceHandler(mockService)

	body, _ := json.Marshal(map[string]any{"title": "   ", "category": "Study Room", "location": "Wells"})
	c, w := newTestContext(http.MethodPost, "/api/v1/resources", body, testStaff)

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestResourceHandler_categories(t *testing.T) {
	mockService := &MockResourceUseCase{}
	handler := NewResourceHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/resources/categories", nil, nil)
	mockService.On("CategoryDistribution", c.Request.Context(), 10).
		Return([]repository.CategoryCount{{Category: "Study Room", Count: 4}}, nil)

	handler.categories(c)

	assert.Equal(t, http.StatusOK, w.Code)
	res := gjson.ParseBytes(w.Body.Bytes())
	assert.Equal(t, int64(4), res.Get("categories.0.count").Int())
	assert.True(t, res.Get("known").IsArray())
}
