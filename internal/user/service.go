// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/security"
)

// FileRemover はアップロード済みファイルの削除インターフェース。
type FileRemover interface {
	Remove(relPath string) error
}

// Input はユーザーの作成・更新入力。
type Input struct {
	Name  model.OptionalString
	Email model.OptionalString
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	files     FileRemover
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。filesはnilでもよい。
func NewService(userRepo repository.UserRepository, files FileRemover, sanitizer security.TextSanitizer) *Service {
	return &Service{
		userRepo:  userRepo,
		files:     files,
		sanitizer: sanitizer,
	}
}

func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Create はユーザーを作成する。メールアドレスは一意。
func (s *Service) Create(ctx context.Context, in Input) (*model.User, error) {
	if !in.Email.Valid {
		return nil, missingField("email")
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email.Value)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewConflictError("Email already registered")
	}

	if !in.Name.Valid {
		return nil, missingField("name")
	}

	user := &model.User{
		Name:  s.sanitizer.Clean(in.Name.Value),
		Email: in.Email.Value,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("Email already registered")
		}
		return nil, err
	}
	return user, nil
}

// Update は指定されたフィールドのみを更新する。メールアドレスの変更時は他ユーザーとの重複を確認する。
func (s *Service) Update(ctx context.Context, id int64, in Input) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if in.Name.Present {
		if !in.Name.Valid {
			return nil, missingField("name")
		}
		user.Name = s.sanitizer.Clean(in.Name.Value)
	}
	if in.Email.Present {
		if !in.Email.Valid {
			return nil, missingField("email")
		}
		if in.Email.Value != user.Email {
			other, err := s.userRepo.FindByEmail(ctx, in.Email.Value)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, model.NewConflictError("Email already in use")
			}
			user.Email = in.Email.Value
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("Email already in use")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, err
	}
	return user, nil
}

// Delete はユーザーと関連する全レコードを削除する。
// 削除順序: answers → user_roles → devices → passwords → sessions →
// digital_signatures → addresses → profiles → users
// プロフィール画像と署名画像はコミット後に削除する。ファイル削除の失敗はログのみ。
func (s *Service) Delete(ctx context.Context, id int64) error {
	artifacts, err := s.userRepo.DeleteCascade(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewUserNotFoundError()
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted", slog.Int64("user_id", id))

	if s.files == nil || artifacts == nil {
		return nil
	}
	for _, path := range []*string{artifacts.ProfilePhoto, artifacts.SignaturePhoto} {
		if path == nil || *path == "" {
			continue
		}
		if err := s.files.Remove(*path); err != nil {
			slog.Warn("failed to remove user file",
				slog.Int64("user_id", id),
				slog.String("path", *path),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func missingField(name string) *model.APIError {
	return model.NewValidationError("Missing required field: " + name)
}
