// Package storage はアップロード画像のローカルファイル保存を提供する。
//
// ファイルは <root>/<namespace>/<uuid>_<安全化したファイル名> に保存され、
// DBにはルートからの相対パス（区切り文字は常に "/"）を記録する。
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// 名前空間
const (
	NamespaceProfiles          = "profiles"
	NamespaceDigitalSignatures = "digital-signatures"
)

// ErrInvalidPath はルート外を指す相対パスが指定された場合のエラー。
var ErrInvalidPath = errors.New("invalid storage path")

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// LocalStore はローカルディスクにファイルを保存するストア。
type LocalStore struct {
	root string
}

// NewLocalStore はLocalStoreを生成する。rootが存在しない場合は作成する。
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Dir は名前空間のディレクトリパスを返す。静的ファイル配信に使用する。
func (s *LocalStore) Dir(namespace string) string {
	return filepath.Join(s.root, namespace)
}

// Save はrの内容を名前空間配下に保存し、ルートからの相対パスを返す。
func (s *LocalStore) Save(namespace, originalName string, r io.Reader) (string, error) {
	dir := s.Dir(namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.NewString() + "_" + SecureFilename(originalName)
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close upload file: %w", err)
	}

	return path.Join(namespace, name), nil
}

// Remove は相対パスのファイルを削除する。ファイルが存在しない場合は何もしない。
func (s *LocalStore) Remove(relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload file: %w", err)
	}
	return nil
}

// resolve は相対パスをルート配下の絶対パスに変換する。ルート外を指す場合はErrInvalidPathを返す。
func (s *LocalStore) resolve(relPath string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(relPath, `\`, "/"))
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// SecureFilename はファイル名からディレクトリ成分と安全でない文字を取り除く。
// 結果が空になる場合は "upload" を返す。
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}
