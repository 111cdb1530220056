package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresDigitalSignatureRepo はPostgreSQLを使用した電子署名リポジトリ。
type PostgresDigitalSignatureRepo struct {
	db *sql.DB
}

// NewPostgresDigitalSignatureRepo はPostgresDigitalSignatureRepoを生成する。
func NewPostgresDigitalSignatureRepo(db *sql.DB) *PostgresDigitalSignatureRepo {
	return &PostgresDigitalSignatureRepo{db: db}
}

const signatureColumns = `id, user_id, photo, created_at, updated_at`

func scanSignature(s rowScanner) (*model.DigitalSignature, error) {
	d := &model.DigitalSignature{}
	if err := s.Scan(&d.ID, &d.UserID, &d.Photo, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

// List は全電子署名を返す。
func (r *PostgresDigitalSignatureRepo) List(ctx context.Context) ([]*model.DigitalSignature, error) {
	return queryAll(ctx, r.db, "digital signatures", scanSignature,
		`SELECT `+signatureColumns+` FROM digital_signatures ORDER BY id`)
}

// FindByID は指定IDの電子署名を取得する。見つからない場合はnilを返す。
func (r *PostgresDigitalSignatureRepo) FindByID(ctx context.Context, id int64) (*model.DigitalSignature, error) {
	return queryOne(ctx, r.db, "digital signature", scanSignature,
		`SELECT `+signatureColumns+` FROM digital_signatures WHERE id = $1`, id)
}

// FindByUserID はユーザーの電子署名を取得する。見つからない場合はnilを返す。
func (r *PostgresDigitalSignatureRepo) FindByUserID(ctx context.Context, userID int64) (*model.DigitalSignature, error) {
	return queryOne(ctx, r.db, "digital signature", scanSignature,
		`SELECT `+signatureColumns+` FROM digital_signatures WHERE user_id = $1`, userID)
}

// Create は電子署名を作成する。
func (r *PostgresDigitalSignatureRepo) Create(ctx context.Context, d *model.DigitalSignature) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO digital_signatures (user_id, photo) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		d.UserID, d.Photo,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return wrapError("insert digital signature", err)
	}
	return nil
}

// Update は署名画像のパスを更新する。
func (r *PostgresDigitalSignatureRepo) Update(ctx context.Context, d *model.DigitalSignature) error {
	return updateReturning(ctx, r.db, "update digital signature", &d.UpdatedAt,
		`UPDATE digital_signatures SET photo = $2, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		d.ID, d.Photo)
}

// DeleteByID は指定IDの電子署名を削除する。
func (r *PostgresDigitalSignatureRepo) DeleteByID(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, "delete digital signature", `DELETE FROM digital_signatures WHERE id = $1`, id)
}

var _ DigitalSignatureRepository = (*PostgresDigitalSignatureRepo)(nil)
