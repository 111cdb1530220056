// Package credential はパスワード履歴・セッション・秘密の質問と回答のドメインロジックを提供する。
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/security"
	"github.com/hitoshi/mssecurity/internal/temporal"
)

// UserFinder はユーザーの存在確認に使うインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// RotationRecorder はパスワード更新の記録インターフェース。
type RotationRecorder interface {
	RecordPasswordRotation(closed int64)
}

// PasswordInput はパスワード作成・更新の入力。
// EndAtはキーの有無とnullを区別する（null は無期限）。
type PasswordInput struct {
	Content model.OptionalString
	StartAt model.OptionalString
	EndAt   model.OptionalString
}

// PasswordService はパスワード履歴のサービス層。
type PasswordService struct {
	passwords repository.PasswordRepository
	users     UserFinder
	hasher    security.PasswordHasher
	recorder  RotationRecorder
	now       temporal.Clock
}

// NewPasswordService はPasswordServiceを生成する。recorderはnilでもよい。
func NewPasswordService(
	passwords repository.PasswordRepository,
	users UserFinder,
	hasher security.PasswordHasher,
	recorder RotationRecorder,
) *PasswordService {
	return &PasswordService{
		passwords: passwords,
		users:     users,
		hasher:    hasher,
		recorder:  recorder,
		now:       temporal.SystemClock,
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func (s *PasswordService) WithClock(clock temporal.Clock) *PasswordService {
	s.now = clock
	return s
}

// List は全パスワードレコードを返す。
func (s *PasswordService) List(ctx context.Context) ([]*model.Password, error) {
	return s.passwords.List(ctx)
}

// Get は指定IDのパスワードレコードを返す。
func (s *PasswordService) Get(ctx context.Context, id int64) (*model.Password, error) {
	p, err := s.passwords.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError("Password record not found")
	}
	return p, nil
}

// ListByUser はユーザーのパスワード履歴を開始日時の降順で返す。
func (s *PasswordService) ListByUser(ctx context.Context, userID int64) ([]*model.Password, error) {
	return s.passwords.ListByUserID(ctx, userID)
}

// GetCurrent は現在有効なパスワードを返す。
// 複数が有効な場合は開始日時が最も新しいものを返す。
func (s *PasswordService) GetCurrent(ctx context.Context, userID int64) (*model.Password, error) {
	history, err := s.passwords.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, ok := temporal.Current(history, s.now())
	if !ok {
		return nil, model.NewNotFoundError("No active password found for this user")
	}
	return current, nil
}

// Create は新しいパスワードを登録する。
// 無期限のパスワードは現在時刻で閉じられ、新しいレコードの挿入と同一トランザクションで実行される。
func (s *PasswordService) Create(ctx context.Context, userID int64, in PasswordInput) (*model.Password, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if !in.Content.Present || !in.Content.Valid {
		return nil, model.NewValidationError("Password content is required")
	}
	if !in.StartAt.Present || !in.StartAt.Valid {
		return nil, model.NewValidationError("startAt content is required")
	}
	if !in.EndAt.Present {
		return nil, model.NewValidationError("endAt content is required")
	}

	startAt, endAt, err := model.ParseWindow(in.StartAt.Value, in.EndAt)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Content.Value)
	if err != nil {
		return nil, err
	}

	p := &model.Password{
		UserID:  userID,
		Content: hash,
		StartAt: startAt,
		EndAt:   endAt,
	}

	closed, err := s.passwords.CreateSuperseding(ctx, p, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordPasswordRotation(closed)
	}
	slog.Info("password rotated",
		slog.Int64("user_id", userID),
		slog.Int64("password_id", p.ID),
		slog.Int64("closed_count", closed),
	)

	return p, nil
}

// Update はパスワードレコードの指定されたフィールドのみを更新する。
func (s *PasswordService) Update(ctx context.Context, id int64, in PasswordInput) (*model.Password, error) {
	p, err := s.passwords.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError("Password record not found")
	}

	if in.Content.Present {
		if !in.Content.Valid {
			return nil, model.NewValidationError("Password content is required")
		}
		hash, err := s.hasher.Hash(in.Content.Value)
		if err != nil {
			return nil, err
		}
		p.Content = hash
	}
	if in.StartAt.Present {
		if !in.StartAt.Valid {
			return nil, model.NewValidationError("startAt content is required")
		}
		startAt, err := model.ParseTimestamp("startAt", in.StartAt.Value)
		if err != nil {
			return nil, err
		}
		p.StartAt = startAt
	}
	if in.EndAt.Present {
		endAt, err := model.ParseOptionalTimestamp("endAt", in.EndAt)
		if err != nil {
			return nil, err
		}
		p.EndAt = endAt
	}
	if err := s.passwords.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("This user already has an open-ended password")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Password record not found")
		}
		return nil, err
	}
	return p, nil
}

// Delete はパスワードレコードを削除する。
func (s *PasswordService) Delete(ctx context.Context, id int64) error {
	err := s.passwords.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("Password record not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete password: %w", err)
	}
	return nil
}
