package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

const sessionColumns = `id, user_id, token, expiration, fa_code, state, created_at, updated_at`

func scanSession(s rowScanner) (*model.Session, error) {
	session := &model.Session{}
	var expiration sql.NullTime
	if err := s.Scan(&session.ID, &session.UserID, &session.Token, &expiration,
		&session.FACode, &session.State, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}
	if expiration.Valid {
		session.Expiration = model.TimestampPtr(&expiration.Time)
	}
	return session, nil
}

// List は全セッションを作成日時の降順で返す。
func (r *PostgresSessionRepo) List(ctx context.Context) ([]*model.Session, error) {
	return queryAll(ctx, r.db, "sessions", scanSession,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return queryOne(ctx, r.db, "session", scanSession,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
}

// ListByUserID はユーザーのセッション一覧を作成日時の降順で返す。
func (r *PostgresSessionRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Session, error) {
	return queryAll(ctx, r.db, "sessions", scanSession,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// Create はセッションを作成する。IDは呼び出し側で採番する。
func (r *PostgresSessionRepo) Create(ctx context.Context, s *model.Session) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (id, user_id, token, expiration, fa_code, state)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.Token, timestampArg(s.Expiration), s.FACode, s.State,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return wrapError("insert session", err)
	}
	return nil
}

// Update はセッションのトークン、有効期限、2要素コード、状態を更新する。
func (r *PostgresSessionRepo) Update(ctx context.Context, s *model.Session) error {
	return updateReturning(ctx, r.db, "update session", &s.UpdatedAt,
		`UPDATE sessions SET token = $2, expiration = $3, fa_code = $4, state = $5, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		s.ID, s.Token, timestampArg(s.Expiration), s.FACode, s.State)
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	return execAffecting(ctx, r.db, "delete session", `DELETE FROM sessions WHERE id = $1`, id)
}

// ExpireBefore は有効期限がnow以前のactiveセッションをexpiredに更新し、更新件数を返す。
func (r *PostgresSessionRepo) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET state = $2, updated_at = now()
		 WHERE state = $3 AND expiration IS NOT NULL AND expiration <= $1`,
		now, model.SessionStateExpired, model.SessionStateActive,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
