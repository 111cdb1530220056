package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
)

// PermissionInput は権限の作成・更新入力。
type PermissionInput struct {
	URL    model.OptionalString
	Method model.OptionalString
	Entity model.OptionalString
}

// HeldPermissionLister はロールが保持する権限IDの集合を返す。
type HeldPermissionLister interface {
	PermissionIDsByRole(ctx context.Context, roleID int64) (map[int64]struct{}, error)
}

// PermissionService は権限のサービス層。
type PermissionService struct {
	permissions repository.PermissionRepository
	held        HeldPermissionLister
}

// NewPermissionService はPermissionServiceを生成する。
func NewPermissionService(permissions repository.PermissionRepository, held HeldPermissionLister) *PermissionService {
	return &PermissionService{permissions: permissions, held: held}
}

func (s *PermissionService) List(ctx context.Context) ([]*model.Permission, error) {
	return s.permissions.List(ctx)
}

func (s *PermissionService) Get(ctx context.Context, id int64) (*model.Permission, error) {
	p, err := s.permissions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError("Permission not found")
	}
	return p, nil
}

// Create は権限を作成する。(url, method, entity) の組は一意。
func (s *PermissionService) Create(ctx context.Context, in PermissionInput) (*model.Permission, error) {
	if !in.URL.Valid || !in.Method.Valid {
		return nil, model.NewValidationError("URL and method are required")
	}
	if !in.Entity.Valid {
		return nil, model.NewValidationError("Entity is required")
	}

	p := &model.Permission{URL: in.URL.Value, Method: in.Method.Value, Entity: in.Entity.Value}
	if err := s.ensureUniqueTriple(ctx, p); err != nil {
		return nil, err
	}

	if err := s.permissions.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicatePermission()
		}
		return nil, err
	}
	return p, nil
}

// Update は指定されたフィールドのみを更新する。更新後の組が他の権限と重複する場合は拒否する。
func (s *PermissionService) Update(ctx context.Context, id int64, in PermissionInput) (*model.Permission, error) {
	p, err := s.permissions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError("Permission not found")
	}

	updated := *p
	for _, f := range []struct {
		in    model.OptionalString
		dest  *string
		label string
	}{
		{in.URL, &updated.URL, "URL"},
		{in.Method, &updated.Method, "Method"},
		{in.Entity, &updated.Entity, "Entity"},
	} {
		if !f.in.Present {
			continue
		}
		if !f.in.Valid {
			return nil, model.NewValidationError(f.label + " must not be null")
		}
		*f.dest = f.in.Value
	}

	if updated.URL != p.URL || updated.Method != p.Method || updated.Entity != p.Entity {
		if err := s.ensureUniqueTriple(ctx, &updated); err != nil {
			return nil, err
		}
	}

	if err := s.permissions.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicatePermission()
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Permission not found")
		}
		return nil, err
	}
	return &updated, nil
}

// Delete は権限と、それを参照するロール権限関連を削除する。
func (s *PermissionService) Delete(ctx context.Context, id int64) error {
	err := s.permissions.DeleteWithAssociations(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("Permission not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	return nil
}

// BuildMatrix は全権限をentityごとにまとめ、ロールが保持しているかを付与して返す。
// 存在しないロールの場合はすべての権限がhas_permission=falseになる。
func (s *PermissionService) BuildMatrix(ctx context.Context, roleID int64) ([]model.PermissionGroup, error) {
	permissions, err := s.permissions.List(ctx)
	if err != nil {
		return nil, err
	}
	held, err := s.held.PermissionIDsByRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return GroupPermissions(permissions, held), nil
}

// ensureUniqueTriple は同じ (url, method, entity) を持つ別の権限が存在しないことを確認する。
func (s *PermissionService) ensureUniqueTriple(ctx context.Context, p *model.Permission) error {
	existing, err := s.permissions.FindByTriple(ctx, p.URL, p.Method, p.Entity)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != p.ID {
		return errDuplicatePermission()
	}
	return nil
}

func errDuplicatePermission() *model.APIError {
	return model.NewConflictError("Permission with this URL and method already exists")
}
