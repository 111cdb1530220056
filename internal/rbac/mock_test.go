package rbac

import (
	"context"
	"time"

	"github.com/hitoshi/mssecurity/internal/model"
)

// --- モック ---

type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}

type mockRoleRepo struct {
	findByIDFn               func(ctx context.Context, id int64) (*model.Role, error)
	findByNameFn             func(ctx context.Context, name string) (*model.Role, error)
	createFn                 func(ctx context.Context, role *model.Role) error
	updateFn                 func(ctx context.Context, role *model.Role) error
	deleteWithAssociationsFn func(ctx context.Context, id int64) error
}

func (m *mockRoleRepo) List(ctx context.Context) ([]*model.Role, error) { return nil, nil }
func (m *mockRoleRepo) FindByID(ctx context.Context, id int64) (*model.Role, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.Role{ID: id, Name: "admin"}, nil
}
func (m *mockRoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	if m.findByNameFn != nil {
		return m.findByNameFn(ctx, name)
	}
	return nil, nil
}
func (m *mockRoleRepo) Create(ctx context.Context, role *model.Role) error {
	if m.createFn != nil {
		return m.createFn(ctx, role)
	}
	return nil
}
func (m *mockRoleRepo) Update(ctx context.Context, role *model.Role) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, role)
	}
	return nil
}
func (m *mockRoleRepo) DeleteWithAssociations(ctx context.Context, id int64) error {
	if m.deleteWithAssociationsFn != nil {
		return m.deleteWithAssociationsFn(ctx, id)
	}
	return nil
}

type mockPermissionRepo struct {
	listFn         func(ctx context.Context) ([]*model.Permission, error)
	findByIDFn     func(ctx context.Context, id int64) (*model.Permission, error)
	findByTripleFn func(ctx context.Context, url, method, entity string) (*model.Permission, error)
	createFn       func(ctx context.Context, p *model.Permission) error
	updateFn       func(ctx context.Context, p *model.Permission) error
}

func (m *mockPermissionRepo) List(ctx context.Context) ([]*model.Permission, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockPermissionRepo) FindByID(ctx context.Context, id int64) (*model.Permission, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockPermissionRepo) FindByTriple(ctx context.Context, url, method, entity string) (*model.Permission, error) {
	if m.findByTripleFn != nil {
		return m.findByTripleFn(ctx, url, method, entity)
	}
	return nil, nil
}
func (m *mockPermissionRepo) Create(ctx context.Context, p *model.Permission) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}
func (m *mockPermissionRepo) Update(ctx context.Context, p *model.Permission) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}
func (m *mockPermissionRepo) DeleteWithAssociations(ctx context.Context, id int64) error {
	return nil
}

type mockHeld struct {
	ids map[int64]map[int64]struct{}
}

func (m *mockHeld) PermissionIDsByRole(ctx context.Context, roleID int64) (map[int64]struct{}, error) {
	if held, ok := m.ids[roleID]; ok {
		return held, nil
	}
	return map[int64]struct{}{}, nil
}

// memUserRoleRepo はロール割り当てのインメモリ実装。
type memUserRoleRepo struct {
	rows []*model.UserRole
}

func (m *memUserRoleRepo) List(ctx context.Context) ([]*model.UserRole, error) { return m.rows, nil }
func (m *memUserRoleRepo) FindByID(ctx context.Context, id string) (*model.UserRole, error) {
	for _, r := range m.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}
func (m *memUserRoleRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.UserRole, error) {
	var out []*model.UserRole
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (m *memUserRoleRepo) ListByRoleID(ctx context.Context, roleID int64) ([]*model.UserRole, error) {
	var out []*model.UserRole
	for _, r := range m.rows {
		if r.RoleID == roleID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (m *memUserRoleRepo) FindByUserAndRole(ctx context.Context, userID, roleID int64) (*model.UserRole, error) {
	for _, r := range m.rows {
		if r.UserID == userID && r.RoleID == roleID {
			return r, nil
		}
	}
	return nil, nil
}
func (m *memUserRoleRepo) Create(ctx context.Context, ur *model.UserRole) error {
	ur.CreatedAt = time.Now()
	ur.UpdatedAt = ur.CreatedAt
	m.rows = append(m.rows, ur)
	return nil
}
func (m *memUserRoleRepo) Update(ctx context.Context, ur *model.UserRole) error { return nil }
func (m *memUserRoleRepo) DeleteByID(ctx context.Context, id string) error     { return nil }

type mockRolePermissionRepo struct {
	findByRoleAndPermissionFn func(ctx context.Context, roleID, permissionID int64) (*model.RolePermission, error)
	createFn                  func(ctx context.Context, rp *model.RolePermission) error
	deleteByIDFn              func(ctx context.Context, id string) error
}

func (m *mockRolePermissionRepo) List(ctx context.Context) ([]*model.RolePermission, error) {
	return nil, nil
}
func (m *mockRolePermissionRepo) FindByID(ctx context.Context, id string) (*model.RolePermission, error) {
	return nil, nil
}
func (m *mockRolePermissionRepo) ListByRoleID(ctx context.Context, roleID int64) ([]*model.RolePermission, error) {
	return nil, nil
}
func (m *mockRolePermissionRepo) ListByPermissionID(ctx context.Context, permissionID int64) ([]*model.RolePermission, error) {
	return nil, nil
}
func (m *mockRolePermissionRepo) FindByRoleAndPermission(ctx context.Context, roleID, permissionID int64) (*model.RolePermission, error) {
	if m.findByRoleAndPermissionFn != nil {
		return m.findByRoleAndPermissionFn(ctx, roleID, permissionID)
	}
	return nil, nil
}
func (m *mockRolePermissionRepo) PermissionIDsByRole(ctx context.Context, roleID int64) (map[int64]struct{}, error) {
	return map[int64]struct{}{}, nil
}
func (m *mockRolePermissionRepo) Create(ctx context.Context, rp *model.RolePermission) error {
	if m.createFn != nil {
		return m.createFn(ctx, rp)
	}
	return nil
}
func (m *mockRolePermissionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Clean(s string) string { return s }

func apiError(err error) *model.APIError {
	apiErr, _ := err.(*model.APIError)
	return apiErr
}
