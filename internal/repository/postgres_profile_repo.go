package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

const profileColumns = `id, user_id, phone, photo, created_at, updated_at`

func scanProfile(s rowScanner) (*model.Profile, error) {
	p := &model.Profile{}
	if err := s.Scan(&p.ID, &p.UserID, &p.Phone, &p.Photo, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// List は全プロフィールを返す。
func (r *PostgresProfileRepo) List(ctx context.Context) ([]*model.Profile, error) {
	return queryAll(ctx, r.db, "profiles", scanProfile,
		`SELECT `+profileColumns+` FROM profiles ORDER BY id`)
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id int64) (*model.Profile, error) {
	return queryOne(ctx, r.db, "profile", scanProfile,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

// FindByUserID はユーザーのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	return queryOne(ctx, r.db, "profile", scanProfile,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
}

// Create はプロフィールを作成する。
func (r *PostgresProfileRepo) Create(ctx context.Context, p *model.Profile) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO profiles (user_id, phone, photo) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.Phone, p.Photo,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return wrapError("insert profile", err)
	}
	return nil
}

// Update は電話番号と画像パスを更新する。
func (r *PostgresProfileRepo) Update(ctx context.Context, p *model.Profile) error {
	return updateReturning(ctx, r.db, "update profile", &p.UpdatedAt,
		`UPDATE profiles SET phone = $2, photo = $3, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		p.ID, p.Phone, p.Photo)
}

// DeleteByID は指定IDのプロフィールを削除する。
func (r *PostgresProfileRepo) DeleteByID(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, "delete profile", `DELETE FROM profiles WHERE id = $1`, id)
}

var _ ProfileRepository = (*PostgresProfileRepo)(nil)
