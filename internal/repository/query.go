package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
)

// queryer は*sql.DBと*sql.Txの共通インターフェース。
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryAll はクエリ結果の全行をscanで変換して返す。結果が0件の場合は空スライスを返す。
func queryAll[T any](ctx context.Context, q queryer, what string, scan func(rowScanner) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer rows.Close()

	items := make([]*T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return items, nil
}

// queryOne はクエリ結果の1行をscanで変換して返す。見つからない場合はnilを返す。
func queryOne[T any](ctx context.Context, q queryer, what string, scan func(rowScanner) (*T, error), query string, args ...any) (*T, error) {
	item, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", what, err)
	}
	return item, nil
}

// execAffecting はUPDATE/DELETEを実行し、対象行が無い場合はErrNotFoundを返す。
func execAffecting(ctx context.Context, db *sql.DB, op, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapError(op, err)
	}
	n, err := result.RowsAffected()
	return checkAffected(op, n, err)
}

// updateReturning はRETURNING updated_at付きのUPDATEを実行する。対象行が無い場合はErrNotFoundを返す。
func updateReturning(ctx context.Context, db *sql.DB, op string, dest any, query string, args ...any) error {
	err := db.QueryRowContext(ctx, query, args...).Scan(dest)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	if err != nil {
		return wrapError(op, err)
	}
	return nil
}

// timestampArg はnil許容の日時をSQLパラメータに変換する。
func timestampArg(ts *model.Timestamp) any {
	if ts == nil {
		return nil
	}
	return ts.Time
}
