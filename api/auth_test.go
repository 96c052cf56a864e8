package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/service/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tidwall/gjson"
)

type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) Register(ctx context.Context, input users.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) Login(ctx context.Context, email, password string) (*users.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Session), args.Error(1)
}

func (m *MockUserUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func TestAuthHandler_register(t *testing.T) {
	mockService := &MockUserUseCase{}
	handler := NewAuthHandler(mockService)

	body, _ := json.Marshal(map[string]string{
		"name":             "Sam Student",
		"email":            "sam@iu.edu",
		"password":         "Passw0rdX",
		"confirm_password": "Passw0rdX",
	})
	c, w := newTestContext(http.MethodPost, "/api/v1/auth/register", body, nil)

	mockService.On("Register", c.Request.Context(), users.RegisterInput{
		Name:            "Sam Student",
		Email:           "sam@iu.edu",
		Password:        "Passw0rdX",
		ConfirmPassword: "Passw0rdX",
	}).Return(testStudent, nil)

	handler.register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "student", gjson.GetBytes(w.Body.Bytes(), "role").String())
	mockService.AssertExpectations(t)
}

func TestAuthHandler_register_AdminRoleRejected(t *testing.T) {
	mockService := &MockUserUseCase{}
	handler := NewAuthHandler(mockService)

	body, _ := json.Marshal(map[string]string{
		"name":             "Eve",
		"email":            "eve@iu.edu",
		"password":         "Passw0rdX",
		"confirm_password": "Passw0rdX",
		"role":             "admin",
	})
	c, w := newTestContext(http.MethodPost, "/api/v1/auth/register", body, nil)

	handler.register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestAuthHandler_login(t *testing.T) {
	mockService := &MockUserUseCase{}
	handler := NewAuthHandler(mockService)

	body, _ := json.Marshal(map[string]string{"email": "sam@iu.edu", "password": "Passw0rdX"})
	c, w := newTestContext(http.MethodPost, "/api/v1/auth/login", body, nil)

	expires := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	mockService.On("Login", c.Request.Context(), "sam@iu.edu", "Passw0rdX").
		Return(&users.Session{Token: "jwt", ExpiresAt: expires, User: testStudent}, nil)

	handler.login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	res := gjson.ParseBytes(w.Body.Bytes())
	assert.Equal(t, "jwt", res.Get("token").String())
	assert.Equal(t, "2026-03-03T10:00:00Z", res.Get("expires_at").String())
	assert.Equal(t, int64(7), res.Get("user.id").Int())
	mockService.AssertExpectations(t)
}

func TestAuthHandler_login_Suspended(t *testing.T) {
	mockService := &MockUserUseCase{}
	handler := NewAuthHandler(mockService)

	body, _ := json.Marshal(map[string]string{"email": "sam@iu.edu", "password": "Passw0rdX"})
	c, w := newTestContext(http.MethodPost, "/api/v1/auth/login", body, nil)
	mockService.On("Login", c.Request.Context(), "sam@iu.edu", "Passw0rdX").Return(nil, domain.ErrSuspended)

	handler.login(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "account is suspended", gjson.GetBytes(w.Body.Bytes(), "error").String())
}
