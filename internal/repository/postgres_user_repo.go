package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, name, email, created_at, updated_at`

func scanUser(s rowScanner) (*model.User, error) {
	user := &model.User{}
	if err := s.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	return user, nil
}

// List は全ユーザーをid昇順で返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成し、採番されたIDと作成日時をuserに設定する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		user.Name, user.Email,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return wrapError("insert user", err)
	}
	return nil
}

// Update はユーザーの名前とメールアドレスを更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET name = $2, email = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		user.ID, user.Name, user.Email,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update user: %w", ErrNotFound)
	}
	if err != nil {
		return wrapError("update user", err)
	}
	return nil
}

// userCascadeSteps はユーザー削除時に実行する子テーブルの削除文（実行順）。
var userCascadeSteps = []struct {
	table string
	query string
}{
	{"answers", `DELETE FROM answers WHERE user_id = $1`},
	{"user_roles", `DELETE FROM user_roles WHERE user_id = $1`},
	{"devices", `DELETE FROM devices WHERE user_id = $1`},
	{"passwords", `DELETE FROM passwords WHERE user_id = $1`},
	{"sessions", `DELETE FROM sessions WHERE user_id = $1`},
	{"digital_signatures", `DELETE FROM digital_signatures WHERE user_id = $1`},
	{"addresses", `DELETE FROM addresses WHERE user_id = $1`},
	{"profiles", `DELETE FROM profiles WHERE user_id = $1`},
}

// DeleteCascade はユーザーと関連する全レコードを同一トランザクションで削除する。
// ファイルの削除は呼び出し側がコミット後に行う。
func (r *PostgresUserRepo) DeleteCascade(ctx context.Context, id int64) (*model.UserArtifacts, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 他の書き込みと競合しないようユーザー行をロックする
	var lockedID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to delete user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	artifacts := &model.UserArtifacts{}
	err = tx.QueryRowContext(ctx,
		`SELECT
			(SELECT photo FROM profiles WHERE user_id = $1),
			(SELECT photo FROM digital_signatures WHERE user_id = $1)`,
		id,
	).Scan(&artifacts.ProfilePhoto, &artifacts.SignaturePhoto)
	if err != nil {
		return nil, fmt.Errorf("failed to collect user files: %w", err)
	}

	for _, step := range userCascadeSteps {
		if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", step.table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return artifacts, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
