// Package rbac はロール・権限・ロール割り当てと権限マトリクスのドメインロジックを提供する。
package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/security"
)

// RoleInput はロールの作成・更新入力。
type RoleInput struct {
	Name        model.OptionalString
	Description model.OptionalString
}

// RoleService はロールのサービス層。
type RoleService struct {
	roles     repository.RoleRepository
	sanitizer security.TextSanitizer
}

// NewRoleService はRoleServiceを生成する。
func NewRoleService(roles repository.RoleRepository, sanitizer security.TextSanitizer) *RoleService {
	return &RoleService{roles: roles, sanitizer: sanitizer}
}

func (s *RoleService) List(ctx context.Context) ([]*model.Role, error) {
	return s.roles.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, id int64) (*model.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, model.NewRoleNotFoundError()
	}
	return role, nil
}

// Create はロールを作成する。ロール名は一意。
func (s *RoleService) Create(ctx context.Context, in RoleInput) (*model.Role, error) {
	if !in.Name.Present || !in.Name.Valid {
		return nil, model.NewValidationError("Role name is required")
	}
	name := s.sanitizer.Clean(in.Name.Value)

	existing, err := s.roles.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewConflictError("Role with this name already exists")
	}

	description := ""
	if in.Description.Valid {
		description = s.sanitizer.Clean(in.Description.Value)
	}
	role := &model.Role{Name: name, Description: &description}
	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("Role with this name already exists")
		}
		return nil, err
	}
	return role, nil
}

// Update は指定されたフィールドのみを更新する。名前の変更時は他ロールとの重複を確認する。
func (s *RoleService) Update(ctx context.Context, id int64, in RoleInput) (*model.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, model.NewRoleNotFoundError()
	}

	if in.Name.Present {
		if !in.Name.Valid {
			return nil, model.NewValidationError("Role name is required")
		}
		name := s.sanitizer.Clean(in.Name.Value)
		if name != role.Name {
			existing, err := s.roles.FindByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, errRoleNameInUse()
			}
			role.Name = name
		}
	}
	if in.Description.Present {
		if in.Description.Valid {
			description := s.sanitizer.Clean(in.Description.Value)
			role.Description = &description
		} else {
			role.Description = nil
		}
	}

	if err := s.roles.Update(ctx, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errRoleNameInUse()
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewRoleNotFoundError()
		}
		return nil, err
	}
	return role, nil
}

// Delete はロールと、それを参照するロール割り当て・権限関連を削除する。
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	err := s.roles.DeleteWithAssociations(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewRoleNotFoundError()
	}
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}

func errRoleNameInUse() *model.APIError {
	return model.NewConflictError("Role name already in use")
}
