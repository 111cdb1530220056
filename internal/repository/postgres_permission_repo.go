package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresPermissionRepo はPostgreSQLを使用した権限リポジトリ。
type PostgresPermissionRepo struct {
	db *sql.DB
}

// NewPostgresPermissionRepo はPostgresPermissionRepoを生成する。
func NewPostgresPermissionRepo(db *sql.DB) *PostgresPermissionRepo {
	return &PostgresPermissionRepo{db: db}
}

const permissionColumns = `id, url, method, entity, created_at, updated_at`

func scanPermission(s rowScanner) (*model.Permission, error) {
	p := &model.Permission{}
	if err := s.Scan(&p.ID, &p.URL, &p.Method, &p.Entity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// List は全権限をid昇順で返す。権限マトリクスのグループ順はこの順序に従う。
func (r *PostgresPermissionRepo) List(ctx context.Context) ([]*model.Permission, error) {
	return queryAll(ctx, r.db, "permissions", scanPermission,
		`SELECT `+permissionColumns+` FROM permissions ORDER BY id`)
}

// FindByID は指定IDの権限を取得する。見つからない場合はnilを返す。
func (r *PostgresPermissionRepo) FindByID(ctx context.Context, id int64) (*model.Permission, error) {
	return queryOne(ctx, r.db, "permission", scanPermission,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id)
}

// FindByTriple は (url, method, entity) の組で権限を検索する。見つからない場合はnilを返す。
func (r *PostgresPermissionRepo) FindByTriple(ctx context.Context, url, method, entity string) (*model.Permission, error) {
	return queryOne(ctx, r.db, "permission", scanPermission,
		`SELECT `+permissionColumns+` FROM permissions WHERE url = $1 AND method = $2 AND entity = $3`,
		url, method, entity)
}

// Create は権限を作成する。
func (r *PostgresPermissionRepo) Create(ctx context.Context, p *model.Permission) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO permissions (url, method, entity) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		p.URL, p.Method, p.Entity,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return wrapError("insert permission", err)
	}
	return nil
}

// Update は権限を更新する。
func (r *PostgresPermissionRepo) Update(ctx context.Context, p *model.Permission) error {
	return updateReturning(ctx, r.db, "update permission", &p.UpdatedAt,
		`UPDATE permissions SET url = $2, method = $3, entity = $4, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		p.ID, p.URL, p.Method, p.Entity)
}

// DeleteWithAssociations は権限と、それを参照するrole_permissionsを削除する。
func (r *PostgresPermissionRepo) DeleteWithAssociations(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete role permissions: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	n, err := result.RowsAffected()
	if err := checkAffected("delete permission", n, err); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ PermissionRepository = (*PostgresPermissionRepo)(nil)
