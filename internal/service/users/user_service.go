package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/campushub/internal/auth"
	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"github.com/Domenick1991/campushub/internal/validate"
	"go.uber.org/zap"
)

var errBadCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

type UserUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            domain.Role
	Department      string
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type UserService struct {
	users          repository.UserRepository
	tokens         *auth.TokenIssuer
	allowedDomains []string
	logger         *zap.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenIssuer, allowedDomains []string, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, tokens: tokens, allowedDomains: allowedDomains, logger: logger}
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := validate.Sanitize(input.Name)
	if err := validate.Length("name", name, 2, 100); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	if err := validate.AllowedDomain(email, s.allowedDomains); err != nil {
		return nil, err
	}
	if err := validate.Password(input.Password); err != nil {
		return nil, err
	}
	if input.Password != input.ConfirmPassword {
		return nil, domain.NewValidationError("confirm_password", "passwords do not match")
	}
	role := input.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if role != domain.RoleStudent && role != domain.RoleStaff {
		return nil, domain.NewValidationError("role", "role must be student or staff")
	}
	department := validate.Sanitize(input.Department)
	if department != "" {
		if err := validate.Length("department", department, 2, 120); err != nil {
			return nil, err
		}
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email is already registered", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Department:   department,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, errBadCredentials
	}
	if user.IsSuspended {
		return nil, domain.ErrSuspended
	}
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if user.IsSuspended {
		return nil, domain.ErrSuspended
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

var _ UserUseCase = (*UserService)(nil)
