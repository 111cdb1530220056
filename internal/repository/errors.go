package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound は更新・削除対象の行が存在しない場合のエラー。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate は一意制約違反のエラー。
	ErrDuplicate = errors.New("duplicate record")
	// ErrMissingReference は参照先の行が存在しない（外部キー制約違反）場合のエラー。
	// 存在確認の後に参照先が削除された場合に発生する。
	ErrMissingReference = errors.New("referenced record not found")
)

// PostgreSQLのエラーコード
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// wrapError はドライバのエラーに操作名を付けてラップする。
// 一意制約違反はErrDuplicate、外部キー制約違反はErrMissingReferenceとして識別できるようにする。
func wrapError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("failed to %s: %w: %s", op, ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("failed to %s: %w: %s", op, ErrMissingReference, pqErr.Constraint)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// checkAffected は更新件数が0の場合にErrNotFoundを返す。
func checkAffected(op string, n int64, err error) error {
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	return nil
}
