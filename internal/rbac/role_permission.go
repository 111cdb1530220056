package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
)

// PermissionFinder は権限の存在確認に使うインターフェース。
type PermissionFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Permission, error)
}

// RolePermissionService はロールと権限の関連のサービス層。
type RolePermissionService struct {
	links       repository.RolePermissionRepository
	roles       RoleFinder
	permissions PermissionFinder
}

// NewRolePermissionService はRolePermissionServiceを生成する。
func NewRolePermissionService(
	links repository.RolePermissionRepository,
	roles RoleFinder,
	permissions PermissionFinder,
) *RolePermissionService {
	return &RolePermissionService{links: links, roles: roles, permissions: permissions}
}

func (s *RolePermissionService) List(ctx context.Context) ([]*model.RolePermission, error) {
	return s.links.List(ctx)
}

func (s *RolePermissionService) Get(ctx context.Context, id string) (*model.RolePermission, error) {
	rp, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rp == nil {
		return nil, errRolePermissionNotFound()
	}
	return rp, nil
}

func (s *RolePermissionService) ListByRole(ctx context.Context, roleID int64) ([]*model.RolePermission, error) {
	return s.links.ListByRoleID(ctx, roleID)
}

func (s *RolePermissionService) ListByPermission(ctx context.Context, permissionID int64) ([]*model.RolePermission, error) {
	return s.links.ListByPermissionID(ctx, permissionID)
}

// Create はロールに権限を付与する。同じ組は1件のみ。
func (s *RolePermissionService) Create(ctx context.Context, roleID, permissionID int64) (*model.RolePermission, error) {
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, model.NewRoleNotFoundError()
	}

	permission, err := s.permissions.FindByID(ctx, permissionID)
	if err != nil {
		return nil, err
	}
	if permission == nil {
		return nil, model.NewNotFoundError("Permission not found")
	}

	existing, err := s.links.FindByRoleAndPermission(ctx, roleID, permissionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errRolePermissionExists()
	}

	rp := &model.RolePermission{
		ID:           uuid.NewString(),
		RoleID:       roleID,
		PermissionID: permissionID,
	}
	if err := s.links.Create(ctx, rp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errRolePermissionExists()
		}
		return nil, err
	}
	return rp, nil
}

// Delete はロールと権限の組で関連を削除する。
func (s *RolePermissionService) Delete(ctx context.Context, roleID, permissionID int64) error {
	rp, err := s.links.FindByRoleAndPermission(ctx, roleID, permissionID)
	if err != nil {
		return err
	}
	if rp == nil {
		return errRolePermissionNotFound()
	}
	return s.DeleteByID(ctx, rp.ID)
}

// DeleteByID はIDで関連を削除する。
func (s *RolePermissionService) DeleteByID(ctx context.Context, id string) error {
	err := s.links.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return errRolePermissionNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to delete role permission: %w", err)
	}
	return nil
}

func errRolePermissionNotFound() *model.APIError {
	return model.NewNotFoundError("Role-Permission relationship not found")
}

func errRolePermissionExists() *model.APIError {
	return model.NewConflictError("This role already has this permission")
}
