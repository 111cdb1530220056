package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/temporal"
)

// UserFinder はユーザーの存在確認に使うインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// RoleFinder はロールの存在確認に使うインターフェース。
type RoleFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Role, error)
}

// WindowInput は有効期間の入力。EndAtのnullは無期限を表す。
type WindowInput struct {
	StartAt model.OptionalString
	EndAt   model.OptionalString
}

// UserRoleService はロール割り当てのサービス層。
//
// パスワードと異なり、割り当ての作成は既存の割り当てを閉じない。
// 同じ (user, role) の組は期間に関係なく1件のみ登録できる。
type UserRoleService struct {
	userRoles repository.UserRoleRepository
	users     UserFinder
	roles     RoleFinder
	now       temporal.Clock
}

// NewUserRoleService はUserRoleServiceを生成する。
func NewUserRoleService(userRoles repository.UserRoleRepository, users UserFinder, roles RoleFinder) *UserRoleService {
	return &UserRoleService{
		userRoles: userRoles,
		users:     users,
		roles:     roles,
		now:       temporal.SystemClock,
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func (s *UserRoleService) WithClock(clock temporal.Clock) *UserRoleService {
	s.now = clock
	return s
}

func (s *UserRoleService) List(ctx context.Context) ([]*model.UserRole, error) {
	return s.userRoles.List(ctx)
}

func (s *UserRoleService) Get(ctx context.Context, id string) (*model.UserRole, error) {
	ur, err := s.userRoles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ur == nil {
		return nil, errUserRoleNotFound()
	}
	return ur, nil
}

func (s *UserRoleService) ListByUser(ctx context.Context, userID int64) ([]*model.UserRole, error) {
	return s.userRoles.ListByUserID(ctx, userID)
}

func (s *UserRoleService) ListByRole(ctx context.Context, roleID int64) ([]*model.UserRole, error) {
	return s.userRoles.ListByRoleID(ctx, roleID)
}

// ListActiveByUser は現在有効な割り当てを開始日時の降順で返す。
func (s *UserRoleService) ListActiveByUser(ctx context.Context, userID int64) ([]*model.UserRole, error) {
	all, err := s.userRoles.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return temporal.Active(all, s.now()), nil
}

// CreateAssignment はユーザーにロールを割り当てる。
// 組がすでに存在する場合は期間に関係なく拒否し、既存の割り当ては変更しない。
func (s *UserRoleService) CreateAssignment(ctx context.Context, userID, roleID int64, in WindowInput) (*model.UserRole, error) {
	if !in.StartAt.Present || !in.StartAt.Valid {
		return nil, model.NewValidationError("startAt content is required")
	}
	if !in.EndAt.Present {
		return nil, model.NewValidationError("endAt content is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, model.NewRoleNotFoundError()
	}

	existing, err := s.userRoles.FindByUserAndRole(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errUserRoleExists()
	}

	startAt, endAt, err := model.ParseWindow(in.StartAt.Value, in.EndAt)
	if err != nil {
		return nil, err
	}

	ur := &model.UserRole{
		ID:      uuid.NewString(),
		UserID:  userID,
		RoleID:  roleID,
		StartAt: startAt,
		EndAt:   endAt,
	}
	if err := s.userRoles.Create(ctx, ur); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errUserRoleExists()
		}
		return nil, err
	}
	return ur, nil
}

// Update は割り当ての有効期間を更新する。
func (s *UserRoleService) Update(ctx context.Context, id string, in WindowInput) (*model.UserRole, error) {
	ur, err := s.userRoles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ur == nil {
		return nil, errUserRoleNotFound()
	}

	if in.StartAt.Present {
		if !in.StartAt.Valid {
			return nil, model.NewValidationError("startAt content is required")
		}
		startAt, err := model.ParseTimestamp("startAt", in.StartAt.Value)
		if err != nil {
			return nil, err
		}
		ur.StartAt = startAt
	}
	if in.EndAt.Present {
		endAt, err := model.ParseOptionalTimestamp("endAt", in.EndAt)
		if err != nil {
			return nil, err
		}
		ur.EndAt = endAt
	}
	if err := s.userRoles.Update(ctx, ur); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserRoleNotFound()
		}
		return nil, err
	}
	return ur, nil
}

func (s *UserRoleService) Delete(ctx context.Context, id string) error {
	err := s.userRoles.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return errUserRoleNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to delete user role: %w", err)
	}
	return nil
}

func errUserRoleNotFound() *model.APIError {
	return model.NewNotFoundError("User-Role relationship not found")
}

func errUserRoleExists() *model.APIError {
	return model.NewConflictError("This user already has this role")
}
