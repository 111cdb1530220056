package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresUserRoleRepo はPostgreSQLを使用したロール割り当てリポジトリ。
type PostgresUserRoleRepo struct {
	db *sql.DB
}

// NewPostgresUserRoleRepo はPostgresUserRoleRepoを生成する。
func NewPostgresUserRoleRepo(db *sql.DB) *PostgresUserRoleRepo {
	return &PostgresUserRoleRepo{db: db}
}

const userRoleColumns = `id, user_id, role_id, start_at, end_at, created_at, updated_at`

func scanUserRole(s rowScanner) (*model.UserRole, error) {
	ur := &model.UserRole{}
	var (
		startAt time.Time
		endAt   sql.NullTime
	)
	if err := s.Scan(&ur.ID, &ur.UserID, &ur.RoleID, &startAt, &endAt, &ur.CreatedAt, &ur.UpdatedAt); err != nil {
		return nil, err
	}
	ur.StartAt = model.NewTimestamp(startAt)
	if endAt.Valid {
		ur.EndAt = model.TimestampPtr(&endAt.Time)
	}
	return ur, nil
}

// List は全ロール割り当てを返す。
func (r *PostgresUserRoleRepo) List(ctx context.Context) ([]*model.UserRole, error) {
	return queryAll(ctx, r.db, "user roles", scanUserRole,
		`SELECT `+userRoleColumns+` FROM user_roles ORDER BY created_at`)
}

// FindByID は指定IDのロール割り当てを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRoleRepo) FindByID(ctx context.Context, id string) (*model.UserRole, error) {
	return queryOne(ctx, r.db, "user role", scanUserRole,
		`SELECT `+userRoleColumns+` FROM user_roles WHERE id = $1`, id)
}

// ListByUserID はユーザーのロール割り当てをstart_at降順で返す。
func (r *PostgresUserRoleRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.UserRole, error) {
	return queryAll(ctx, r.db, "user roles", scanUserRole,
		`SELECT `+userRoleColumns+` FROM user_roles WHERE user_id = $1 ORDER BY start_at DESC`, userID)
}

// ListByRoleID はロールの割り当て一覧をstart_at降順で返す。
func (r *PostgresUserRoleRepo) ListByRoleID(ctx context.Context, roleID int64) ([]*model.UserRole, error) {
	return queryAll(ctx, r.db, "user roles", scanUserRole,
		`SELECT `+userRoleColumns+` FROM user_roles WHERE role_id = $1 ORDER BY start_at DESC`, roleID)
}

// FindByUserAndRole はユーザーとロールの組で割り当てを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRoleRepo) FindByUserAndRole(ctx context.Context, userID, roleID int64) (*model.UserRole, error) {
	return queryOne(ctx, r.db, "user role", scanUserRole,
		`SELECT `+userRoleColumns+` FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
}

// Create はロール割り当てを作成する。IDは呼び出し側で採番する。
func (r *PostgresUserRoleRepo) Create(ctx context.Context, ur *model.UserRole) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_roles (id, user_id, role_id, start_at, end_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		ur.ID, ur.UserID, ur.RoleID, ur.StartAt.Time, timestampArg(ur.EndAt),
	).Scan(&ur.CreatedAt, &ur.UpdatedAt)
	if err != nil {
		return wrapError("insert user role", err)
	}
	return nil
}

// Update は割り当ての有効期間を更新する。
func (r *PostgresUserRoleRepo) Update(ctx context.Context, ur *model.UserRole) error {
	return updateReturning(ctx, r.db, "update user role", &ur.UpdatedAt,
		`UPDATE user_roles SET start_at = $2, end_at = $3, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		ur.ID, ur.StartAt.Time, timestampArg(ur.EndAt))
}

// DeleteByID は指定IDのロール割り当てを削除する。
func (r *PostgresUserRoleRepo) DeleteByID(ctx context.Context, id string) error {
	return execAffecting(ctx, r.db, "delete user role", `DELETE FROM user_roles WHERE id = $1`, id)
}

var _ UserRoleRepository = (*PostgresUserRoleRepo)(nil)
