package admin

import (
	"context"
	"fmt"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
	"go.uber.org/zap"
)

const defaultLogLimit = 100

type AdminUseCase interface {
	Record(ctx context.Context, adminID int64, action, table, details string) error
	SuspendUser(ctx context.Context, adminID, userID int64) (*domain.User, error)
	UnsuspendUser(ctx context.Context, adminID, userID int64) (*domain.User, error)
	ListUsers(ctx context.Context, adminID int64, limit, offset int) ([]domain.User, error)
	ListLogs(ctx context.Context, adminID int64, limit int) ([]domain.AdminLog, error)
}

type AdminService struct {
	logs   repository.AdminLogRepository
	users  repository.UserRepository
	logger *zap.Logger
}

func NewAdminService(logs repository.AdminLogRepository, users repository.UserRepository, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{logs: logs, users: users, logger: logger}
}

// Record appends to the audit trail. It satisfies the recorder interfaces
// of the other services.
func (s *AdminService) Record(ctx context.Context, adminID int64, action, table, details string) error {
	entry := &domain.AdminLog{AdminID: adminID, Action: action, TargetTable: table, Details: details}
	if err := s.logs.Create(ctx, entry); err != nil {
		return err
	}
	s.logger.Info("admin action", zap.Int64("admin_id", adminID), zap.String("action", action), zap.String("details", details))
	return nil
}

func (s *AdminService) SuspendUser(ctx context.Context, adminID, userID int64) (*domain.User, error) {
	return s.setSuspended(ctx, adminID, userID, true)
}

func (s *AdminService) UnsuspendUser(ctx context.Context, adminID, userID int64) (*domain.User, error) {
	return s.setSuspended(ctx, adminID, userID, false)
}

func (s *AdminService) setSuspended(ctx context.Context, adminID, userID int64, suspended bool) (*domain.User, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if adminID == userID {
		return nil, domain.NewValidationError("user_id", "you cannot change your own suspension")
	}
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return nil, fmt.Errorf("%w: administrators cannot be suspended", domain.ErrForbidden)
	}
	updated, err := s.users.SetSuspended(ctx, userID, suspended)
	if err != nil {
		return nil, err
	}
	action := "unsuspend_user"
	if suspended {
		action = "suspend_user"
	}
	if err := s.Record(ctx, adminID, action, "users", fmt.Sprintf("user %d (%s)", updated.ID, updated.Email)); err != nil {
		s.logger.Warn("record suspension", zap.Error(err))
	}
	return updated, nil
}

func (s *AdminService) ListUsers(ctx context.Context, adminID int64, limit, offset int) ([]domain.User, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return s.users.List(ctx, limit, offset)
}

func (s *AdminService) ListLogs(ctx context.Context, adminID int64, limit int) ([]domain.AdminLog, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return s.logs.List(ctx, limit)
}

func (s *AdminService) requireAdmin(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return u, nil
}

var _ AdminUseCase = (*AdminService)(nil)
