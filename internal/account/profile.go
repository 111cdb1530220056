package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/storage"
)

// ProfileInput はプロフィールの作成・更新入力。
type ProfileInput struct {
	Phone model.OptionalString
	Photo *Upload
}

// ProfileService はプロフィールのサービス層。
type ProfileService struct {
	profiles repository.ProfileRepository
	users    UserFinder
	files    FileStore
}

// NewProfileService はProfileServiceを生成する。
func NewProfileService(profiles repository.ProfileRepository, users UserFinder, files FileStore) *ProfileService {
	return &ProfileService{profiles: profiles, users: users, files: files}
}

func (s *ProfileService) List(ctx context.Context) ([]*model.Profile, error) {
	return s.profiles.List(ctx)
}

func (s *ProfileService) Get(ctx context.Context, id int64) (*model.Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errProfileNotFound()
	}
	return p, nil
}

func (s *ProfileService) GetByUser(ctx context.Context, userID int64) (*model.Profile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError("Profile not found for this user")
	}
	return p, nil
}

// Create はユーザーのプロフィールを作成する。1ユーザーにつき1件。
// 写真の保存後にDBへの登録が失敗した場合は保存したファイルを削除する。
func (s *ProfileService) Create(ctx context.Context, userID int64, in ProfileInput) (*model.Profile, error) {
	if err := ensureUser(ctx, s.users, userID); err != nil {
		return nil, err
	}

	existing, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errProfileExists()
	}

	phone := in.Phone.Value
	p := &model.Profile{UserID: userID, Phone: &phone}

	if in.Photo != nil {
		path, err := s.files.Save(storage.NamespaceProfiles, in.Photo.Filename, in.Photo.Content)
		if err != nil {
			return nil, err
		}
		p.Photo = &path
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		if p.Photo != nil {
			removeQuietly(s.files, *p.Photo)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errProfileExists()
		}
		return nil, err
	}
	return p, nil
}

// Update は電話番号と写真を更新する。写真を差し替えた場合は更新成功後に旧ファイルを削除する。
func (s *ProfileService) Update(ctx context.Context, id int64, in ProfileInput) (*model.Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errProfileNotFound()
	}

	if in.Phone.Present {
		p.Phone = in.Phone.Ptr()
	}

	var oldPhoto, newPhoto string
	if in.Photo != nil {
		newPhoto, err = s.files.Save(storage.NamespaceProfiles, in.Photo.Filename, in.Photo.Content)
		if err != nil {
			return nil, err
		}
		if p.Photo != nil {
			oldPhoto = *p.Photo
		}
		p.Photo = &newPhoto
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		removeQuietly(s.files, newPhoto)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errProfileNotFound()
		}
		return nil, err
	}

	removeQuietly(s.files, oldPhoto)
	return p, nil
}

// Delete はプロフィールを削除し、写真ファイルも削除する。
func (s *ProfileService) Delete(ctx context.Context, id int64) error {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return errProfileNotFound()
	}

	if err := s.profiles.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errProfileNotFound()
		}
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if p.Photo != nil {
		removeQuietly(s.files, *p.Photo)
	}
	return nil
}

func errProfileNotFound() *model.APIError {
	return model.NewNotFoundError("Profile not found")
}

func errProfileExists() *model.APIError {
	return model.NewConflictError("User already has a profile")
}
