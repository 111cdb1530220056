package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresAddressRepo はPostgreSQLを使用した住所リポジトリ。
type PostgresAddressRepo struct {
	db *sql.DB
}

// NewPostgresAddressRepo はPostgresAddressRepoを生成する。
func NewPostgresAddressRepo(db *sql.DB) *PostgresAddressRepo {
	return &PostgresAddressRepo{db: db}
}

const addressColumns = `id, user_id, street, number, latitude, longitude, created_at, updated_at`

func scanAddress(s rowScanner) (*model.Address, error) {
	a := &model.Address{}
	if err := s.Scan(&a.ID, &a.UserID, &a.Street, &a.Number, &a.Latitude, &a.Longitude, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// List は全住所を返す。
func (r *PostgresAddressRepo) List(ctx context.Context) ([]*model.Address, error) {
	return queryAll(ctx, r.db, "addresses", scanAddress,
		`SELECT `+addressColumns+` FROM addresses ORDER BY id`)
}

// FindByID は指定IDの住所を取得する。見つからない場合はnilを返す。
func (r *PostgresAddressRepo) FindByID(ctx context.Context, id int64) (*model.Address, error) {
	return queryOne(ctx, r.db, "address", scanAddress,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id)
}

// FindByUserID はユーザーの住所を取得する。見つからない場合はnilを返す。
func (r *PostgresAddressRepo) FindByUserID(ctx context.Context, userID int64) (*model.Address, error) {
	return queryOne(ctx, r.db, "address", scanAddress,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1`, userID)
}

// Create は住所を作成する。
func (r *PostgresAddressRepo) Create(ctx context.Context, a *model.Address) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO addresses (user_id, street, number, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.Street, a.Number, a.Latitude, a.Longitude,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return wrapError("insert address", err)
	}
	return nil
}

// Update は住所を更新する。
func (r *PostgresAddressRepo) Update(ctx context.Context, a *model.Address) error {
	return updateReturning(ctx, r.db, "update address", &a.UpdatedAt,
		`UPDATE addresses SET street = $2, number = $3, latitude = $4, longitude = $5, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		a.ID, a.Street, a.Number, a.Latitude, a.Longitude)
}

// DeleteByID は指定IDの住所を削除する。
func (r *PostgresAddressRepo) DeleteByID(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, "delete address", `DELETE FROM addresses WHERE id = $1`, id)
}

var _ AddressRepository = (*PostgresAddressRepo)(nil)
