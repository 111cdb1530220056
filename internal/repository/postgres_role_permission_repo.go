package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresRolePermissionRepo はPostgreSQLを使用したロール権限リポジトリ。
type PostgresRolePermissionRepo struct {
	db *sql.DB
}

// NewPostgresRolePermissionRepo はPostgresRolePermissionRepoを生成する。
func NewPostgresRolePermissionRepo(db *sql.DB) *PostgresRolePermissionRepo {
	return &PostgresRolePermissionRepo{db: db}
}

const rolePermissionColumns = `id, role_id, permission_id, created_at, updated_at`

func scanRolePermission(s rowScanner) (*model.RolePermission, error) {
	rp := &model.RolePermission{}
	if err := s.Scan(&rp.ID, &rp.RoleID, &rp.PermissionID, &rp.CreatedAt, &rp.UpdatedAt); err != nil {
		return nil, err
	}
	return rp, nil
}

// List は全ロール権限を返す。
func (r *PostgresRolePermissionRepo) List(ctx context.Context) ([]*model.RolePermission, error) {
	return queryAll(ctx, r.db, "role permissions", scanRolePermission,
		`SELECT `+rolePermissionColumns+` FROM role_permissions ORDER BY created_at`)
}

// FindByID は指定IDのロール権限を取得する。見つからない場合はnilを返す。
func (r *PostgresRolePermissionRepo) FindByID(ctx context.Context, id string) (*model.RolePermission, error) {
	return queryOne(ctx, r.db, "role permission", scanRolePermission,
		`SELECT `+rolePermissionColumns+` FROM role_permissions WHERE id = $1`, id)
}

// ListByRoleID はロールに紐づくロール権限を返す。
func (r *PostgresRolePermissionRepo) ListByRoleID(ctx context.Context, roleID int64) ([]*model.RolePermission, error) {
	return queryAll(ctx, r.db, "role permissions", scanRolePermission,
		`SELECT `+rolePermissionColumns+` FROM role_permissions WHERE role_id = $1 ORDER BY created_at`, roleID)
}

// ListByPermissionID は権限に紐づくロール権限を返す。
func (r *PostgresRolePermissionRepo) ListByPermissionID(ctx context.Context, permissionID int64) ([]*model.RolePermission, error) {
	return queryAll(ctx, r.db, "role permissions", scanRolePermission,
		`SELECT `+rolePermissionColumns+` FROM role_permissions WHERE permission_id = $1 ORDER BY created_at`, permissionID)
}

// FindByRoleAndPermission はロールと権限の組で検索する。見つからない場合はnilを返す。
func (r *PostgresRolePermissionRepo) FindByRoleAndPermission(ctx context.Context, roleID, permissionID int64) (*model.RolePermission, error) {
	return queryOne(ctx, r.db, "role permission", scanRolePermission,
		`SELECT `+rolePermissionColumns+` FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
		roleID, permissionID)
}

// PermissionIDsByRole はロールに紐づく権限IDの集合を返す。
func (r *PostgresRolePermissionRepo) PermissionIDsByRole(ctx context.Context, roleID int64) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT permission_id FROM role_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan permission id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permission ids: %w", err)
	}
	return ids, nil
}

// Create はロール権限を作成する。IDは呼び出し側で採番する。
func (r *PostgresRolePermissionRepo) Create(ctx context.Context, rp *model.RolePermission) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO role_permissions (id, role_id, permission_id) VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		rp.ID, rp.RoleID, rp.PermissionID,
	).Scan(&rp.CreatedAt, &rp.UpdatedAt)
	if err != nil {
		return wrapError("insert role permission", err)
	}
	return nil
}

// DeleteByID は指定IDのロール権限を削除する。
func (r *PostgresRolePermissionRepo) DeleteByID(ctx context.Context, id string) error {
	return execAffecting(ctx, r.db, "delete role permission", `DELETE FROM role_permissions WHERE id = $1`, id)
}

var _ RolePermissionRepository = (*PostgresRolePermissionRepo)(nil)
