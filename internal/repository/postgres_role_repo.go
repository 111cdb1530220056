package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresRoleRepo はPostgreSQLを使用したロールリポジトリ。
type PostgresRoleRepo struct {
	db *sql.DB
}

// NewPostgresRoleRepo はPostgresRoleRepoを生成する。
func NewPostgresRoleRepo(db *sql.DB) *PostgresRoleRepo {
	return &PostgresRoleRepo{db: db}
}

const roleColumns = `id, name, description, created_at, updated_at`

func scanRole(s rowScanner) (*model.Role, error) {
	role := &model.Role{}
	if err := s.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	return role, nil
}

// List は全ロールを返す。
func (r *PostgresRoleRepo) List(ctx context.Context) ([]*model.Role, error) {
	return queryAll(ctx, r.db, "roles", scanRole,
		`SELECT `+roleColumns+` FROM roles ORDER BY id`)
}

// FindByID は指定IDのロールを取得する。見つからない場合はnilを返す。
func (r *PostgresRoleRepo) FindByID(ctx context.Context, id int64) (*model.Role, error) {
	return queryOne(ctx, r.db, "role", scanRole,
		`SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
}

// FindByName は名前でロールを検索する。見つからない場合はnilを返す。
func (r *PostgresRoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	return queryOne(ctx, r.db, "role", scanRole,
		`SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
}

// Create はロールを作成する。
func (r *PostgresRoleRepo) Create(ctx context.Context, role *model.Role) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		role.Name, role.Description,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return wrapError("insert role", err)
	}
	return nil
}

// Update はロールを更新する。
func (r *PostgresRoleRepo) Update(ctx context.Context, role *model.Role) error {
	return updateReturning(ctx, r.db, "update role", &role.UpdatedAt,
		`UPDATE roles SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		role.ID, role.Name, role.Description)
}

// DeleteWithAssociations はロールと、それを参照するrole_permissions・user_rolesを削除する。
func (r *PostgresRoleRepo) DeleteWithAssociations(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete role permissions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE role_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user roles: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	n, err := result.RowsAffected()
	if err := checkAffected("delete role", n, err); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ RoleRepository = (*PostgresRoleRepo)(nil)
