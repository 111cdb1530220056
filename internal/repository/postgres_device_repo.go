package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresDeviceRepo はPostgreSQLを使用した端末リポジトリ。
type PostgresDeviceRepo struct {
	db *sql.DB
}

// NewPostgresDeviceRepo はPostgresDeviceRepoを生成する。
func NewPostgresDeviceRepo(db *sql.DB) *PostgresDeviceRepo {
	return &PostgresDeviceRepo{db: db}
}

const deviceColumns = `id, user_id, name, ip, operating_system, created_at, updated_at`

func scanDevice(s rowScanner) (*model.Device, error) {
	d := &model.Device{}
	if err := s.Scan(&d.ID, &d.UserID, &d.Name, &d.IP, &d.OperatingSystem, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

// List は全端末を返す。
func (r *PostgresDeviceRepo) List(ctx context.Context) ([]*model.Device, error) {
	return queryAll(ctx, r.db, "devices", scanDevice,
		`SELECT `+deviceColumns+` FROM devices ORDER BY id`)
}

// FindByID は指定IDの端末を取得する。見つからない場合はnilを返す。
func (r *PostgresDeviceRepo) FindByID(ctx context.Context, id int64) (*model.Device, error) {
	return queryOne(ctx, r.db, "device", scanDevice,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
}

// ListByUserID はユーザーの端末一覧を返す。
func (r *PostgresDeviceRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Device, error) {
	return queryAll(ctx, r.db, "devices", scanDevice,
		`SELECT `+deviceColumns+` FROM devices WHERE user_id = $1 ORDER BY id`, userID)
}

// Create は端末を作成する。
func (r *PostgresDeviceRepo) Create(ctx context.Context, d *model.Device) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO devices (user_id, name, ip, operating_system) VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		d.UserID, d.Name, d.IP, d.OperatingSystem,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return wrapError("insert device", err)
	}
	return nil
}

// Update は端末情報を更新する。
func (r *PostgresDeviceRepo) Update(ctx context.Context, d *model.Device) error {
	return updateReturning(ctx, r.db, "update device", &d.UpdatedAt,
		`UPDATE devices SET name = $2, ip = $3, operating_system = $4, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		d.ID, d.Name, d.IP, d.OperatingSystem)
}

// DeleteByID は指定IDの端末を削除する。
func (r *PostgresDeviceRepo) DeleteByID(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, "delete device", `DELETE FROM devices WHERE id = $1`, id)
}

var _ DeviceRepository = (*PostgresDeviceRepo)(nil)
