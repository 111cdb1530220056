package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
)

// AddressInput は住所の作成・更新入力。
type AddressInput struct {
	Street    model.OptionalString
	Number    model.OptionalString
	Latitude  model.OptionalFloat
	Longitude model.OptionalFloat
}

// AddressService は住所のサービス層。
type AddressService struct {
	addresses repository.AddressRepository
	users     UserFinder
}

// NewAddressService はAddressServiceを生成する。
func NewAddressService(addresses repository.AddressRepository, users UserFinder) *AddressService {
	return &AddressService{addresses: addresses, users: users}
}

func (s *AddressService) List(ctx context.Context) ([]*model.Address, error) {
	return s.addresses.List(ctx)
}

func (s *AddressService) Get(ctx context.Context, id int64) (*model.Address, error) {
	a, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errAddressNotFound()
	}
	return a, nil
}

func (s *AddressService) GetByUser(ctx context.Context, userID int64) (*model.Address, error) {
	a, err := s.addresses.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, model.NewNotFoundError("Address not found for this user")
	}
	return a, nil
}

// Create はユーザーの住所を登録する。1ユーザーにつき1件。
func (s *AddressService) Create(ctx context.Context, userID int64, in AddressInput) (*model.Address, error) {
	if err := ensureUser(ctx, s.users, userID); err != nil {
		return nil, err
	}

	existing, err := s.addresses.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errAddressExists()
	}

	if !in.Street.Valid || !in.Number.Valid {
		return nil, errStreetAndNumberRequired()
	}

	a := &model.Address{
		UserID:    userID,
		Street:    in.Street.Value,
		Number:    in.Number.Value,
		Latitude:  in.Latitude.Ptr(),
		Longitude: in.Longitude.Ptr(),
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errAddressExists()
		}
		return nil, err
	}
	return a, nil
}

// Update は指定されたフィールドのみを更新する。
func (s *AddressService) Update(ctx context.Context, id int64, in AddressInput) (*model.Address, error) {
	a, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errAddressNotFound()
	}

	if in.Street.Present {
		if !in.Street.Valid {
			return nil, errStreetAndNumberRequired()
		}
		a.Street = in.Street.Value
	}
	if in.Number.Present {
		if !in.Number.Valid {
			return nil, errStreetAndNumberRequired()
		}
		a.Number = in.Number.Value
	}
	if in.Latitude.Present {
		a.Latitude = in.Latitude.Ptr()
	}
	if in.Longitude.Present {
		a.Longitude = in.Longitude.Ptr()
	}

	if err := s.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errAddressNotFound()
		}
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Delete(ctx context.Context, id int64) error {
	err := s.addresses.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return errAddressNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

func errAddressNotFound() *model.APIError {
	return model.NewNotFoundError("Address not found")
}

func errAddressExists() *model.APIError {
	return model.NewConflictError("User already has an address")
}

func errStreetAndNumberRequired() *model.APIError {
	return model.NewValidationError("Street and number are required")
}
