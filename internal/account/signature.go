package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/storage"
)

// DigitalSignatureService は電子署名のサービス層。
type DigitalSignatureService struct {
	signatures repository.DigitalSignatureRepository
	users      UserFinder
	files      FileStore
}

// NewDigitalSignatureService はDigitalSignatureServiceを生成する。
func NewDigitalSignatureService(signatures repository.DigitalSignatureRepository, users UserFinder, files FileStore) *DigitalSignatureService {
	return &DigitalSignatureService{signatures: signatures, users: users, files: files}
}

func (s *DigitalSignatureService) List(ctx context.Context) ([]*model.DigitalSignature, error) {
	return s.signatures.List(ctx)
}

func (s *DigitalSignatureService) Get(ctx context.Context, id int64) (*model.DigitalSignature, error) {
	sig, err := s.signatures.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		return nil, errSignatureNotFound()
	}
	return sig, nil
}

func (s *DigitalSignatureService) GetByUser(ctx context.Context, userID int64) (*model.DigitalSignature, error) {
	sig, err := s.signatures.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		return nil, model.NewNotFoundError("Digital signature not found for this user")
	}
	return sig, nil
}

// Create はユーザーの電子署名を登録する。画像は必須。
func (s *DigitalSignatureService) Create(ctx context.Context, userID int64, photo *Upload) (*model.DigitalSignature, error) {
	if err := ensureUser(ctx, s.users, userID); err != nil {
		return nil, err
	}

	existing, err := s.signatures.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errSignatureExists()
	}

	if photo == nil {
		return nil, errSignatureImageRequired()
	}

	path, err := s.files.Save(storage.NamespaceDigitalSignatures, photo.Filename, photo.Content)
	if err != nil {
		return nil, err
	}

	sig := &model.DigitalSignature{UserID: userID, Photo: path}
	if err := s.signatures.Create(ctx, sig); err != nil {
		removeQuietly(s.files, path)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errSignatureExists()
		}
		return nil, err
	}
	return sig, nil
}

// Update は署名画像を差し替え、更新成功後に旧ファイルを削除する。
func (s *DigitalSignatureService) Update(ctx context.Context, id int64, photo *Upload) (*model.DigitalSignature, error) {
	sig, err := s.signatures.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		return nil, errSignatureNotFound()
	}

	if photo == nil {
		return nil, errSignatureImageRequired()
	}

	path, err := s.files.Save(storage.NamespaceDigitalSignatures, photo.Filename, photo.Content)
	if err != nil {
		return nil, err
	}

	old := sig.Photo
	sig.Photo = path
	if err := s.signatures.Update(ctx, sig); err != nil {
		removeQuietly(s.files, path)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errSignatureNotFound()
		}
		return nil, err
	}

	removeQuietly(s.files, old)
	return sig, nil
}

// Delete は電子署名を削除し、画像ファイルも削除する。
func (s *DigitalSignatureService) Delete(ctx context.Context, id int64) error {
	sig, err := s.signatures.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if sig == nil {
		return errSignatureNotFound()
	}

	if err := s.signatures.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errSignatureNotFound()
		}
		return fmt.Errorf("failed to delete digital signature: %w", err)
	}

	removeQuietly(s.files, sig.Photo)
	return nil
}

func errSignatureNotFound() *model.APIError {
	return model.NewNotFoundError("Digital signature not found")
}

func errSignatureExists() *model.APIError {
	return model.NewConflictError("User already has a digital signature")
}

func errSignatureImageRequired() *model.APIError {
	return model.NewValidationError("Digital signature image is required")
}
