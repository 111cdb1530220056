// Package account はプロフィール・住所・電子署名・端末のドメインロジックを提供する。
package account

import (
	"context"
	"io"
	"log/slog"

	"github.com/hitoshi/mssecurity/internal/model"
)

// FileStore はアップロード画像の保存先インターフェース。
type FileStore interface {
	Save(namespace, originalName string, r io.Reader) (string, error)
	Remove(relPath string) error
}

// UserFinder はユーザーの存在確認に使うインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// Upload はマルチパートで受け取った画像ファイル。
type Upload struct {
	Filename string
	Content  io.Reader
}

// removeQuietly はファイルを削除し、失敗はログに記録するだけにする。
func removeQuietly(files FileStore, relPath string) {
	if relPath == "" {
		return
	}
	if err := files.Remove(relPath); err != nil {
		slog.Warn("failed to remove uploaded file",
			slog.String("path", relPath),
			slog.String("error", err.Error()),
		)
	}
}

func ensureUser(ctx context.Context, users UserFinder, userID int64) error {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	return nil
}
