package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresPasswordRepo はPostgreSQLを使用したパスワード履歴リポジトリ。
type PostgresPasswordRepo struct {
	db *sql.DB
}

// NewPostgresPasswordRepo はPostgresPasswordRepoを生成する。
func NewPostgresPasswordRepo(db *sql.DB) *PostgresPasswordRepo {
	return &PostgresPasswordRepo{db: db}
}

const passwordColumns = `id, user_id, content, start_at, end_at, created_at, updated_at`

func scanPassword(s rowScanner) (*model.Password, error) {
	p := &model.Password{}
	var (
		startAt time.Time
		endAt   sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.Content, &startAt, &endAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.StartAt = model.NewTimestamp(startAt)
	if endAt.Valid {
		p.EndAt = model.TimestampPtr(&endAt.Time)
	}
	return p, nil
}

// List は全パスワード履歴を返す。
func (r *PostgresPasswordRepo) List(ctx context.Context) ([]*model.Password, error) {
	return queryAll(ctx, r.db, "passwords", scanPassword,
		`SELECT `+passwordColumns+` FROM passwords ORDER BY id`)
}

// FindByID は指定IDのパスワードを取得する。見つからない場合はnilを返す。
func (r *PostgresPasswordRepo) FindByID(ctx context.Context, id int64) (*model.Password, error) {
	return queryOne(ctx, r.db, "password", scanPassword,
		`SELECT `+passwordColumns+` FROM passwords WHERE id = $1`, id)
}

// ListByUserID はユーザーのパスワード履歴をstart_at降順で返す。
func (r *PostgresPasswordRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Password, error) {
	return queryAll(ctx, r.db, "passwords", scanPassword,
		`SELECT `+passwordColumns+` FROM passwords WHERE user_id = $1 ORDER BY start_at DESC, id DESC`, userID)
}

// CreateSuperseding は現在のパスワードを閉じて新しいパスワードを挿入する。
//
// 処理順序:
//  1. users行をFOR UPDATEでロック（同一ユーザーへの同時変更を直列化）
//  2. end_at IS NULLのパスワードのend_atをcloseAtに設定
//  3. 新しいパスワードを挿入
//
// いずれかが失敗した場合はロールバックされ、既存のパスワードは変更されない。
func (r *PostgresPasswordRepo) CreateSuperseding(ctx context.Context, p *model.Password, closeAt time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, p.UserID).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to lock user: %w", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock user: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE passwords SET end_at = $2, updated_at = now()
		 WHERE user_id = $1 AND end_at IS NULL`,
		p.UserID, closeAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to close current password: %w", err)
	}
	closed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO passwords (user_id, content, start_at, end_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.Content, p.StartAt.Time, timestampArg(p.EndAt),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return 0, wrapError("insert password", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return closed, nil
}

// Update はパスワードの内容と有効期間を更新する。
func (r *PostgresPasswordRepo) Update(ctx context.Context, p *model.Password) error {
	return updateReturning(ctx, r.db, "update password", &p.UpdatedAt,
		`UPDATE passwords SET content = $2, start_at = $3, end_at = $4, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		p.ID, p.Content, p.StartAt.Time, timestampArg(p.EndAt))
}

// DeleteByID は指定IDのパスワードを削除する。
func (r *PostgresPasswordRepo) DeleteByID(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, "delete password", `DELETE FROM passwords WHERE id = $1`, id)
}

// compile-time interface check
var _ PasswordRepository = (*PostgresPasswordRepo)(nil)
