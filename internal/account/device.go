package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/security"
)

// DeviceInput は端末の作成・更新入力。
type DeviceInput struct {
	Name            model.OptionalString
	IP              model.OptionalString
	OperatingSystem model.OptionalString
}

// DeviceService は端末のサービス層。1ユーザーが複数の端末を持てる。
type DeviceService struct {
	devices   repository.DeviceRepository
	users     UserFinder
	sanitizer security.TextSanitizer
}

// NewDeviceService はDeviceServiceを生成する。
func NewDeviceService(devices repository.DeviceRepository, users UserFinder, sanitizer security.TextSanitizer) *DeviceService {
	return &DeviceService{devices: devices, users: users, sanitizer: sanitizer}
}

func (s *DeviceService) List(ctx context.Context) ([]*model.Device, error) {
	return s.devices.List(ctx)
}

func (s *DeviceService) Get(ctx context.Context, id int64) (*model.Device, error) {
	d, err := s.devices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errDeviceNotFound()
	}
	return d, nil
}

func (s *DeviceService) ListByUser(ctx context.Context, userID int64) ([]*model.Device, error) {
	return s.devices.ListByUserID(ctx, userID)
}

// Create はユーザーの端末を登録する。OSが未指定の場合は空文字列を保存する。
func (s *DeviceService) Create(ctx context.Context, userID int64, in DeviceInput) (*model.Device, error) {
	if err := ensureUser(ctx, s.users, userID); err != nil {
		return nil, err
	}

	if !in.Name.Valid || !in.IP.Valid {
		return nil, errDeviceFieldsRequired()
	}

	opSystem := ""
	if in.OperatingSystem.Valid {
		opSystem = s.sanitizer.Clean(in.OperatingSystem.Value)
	}
	d := &model.Device{
		UserID:          userID,
		Name:            s.sanitizer.Clean(in.Name.Value),
		IP:              in.IP.Value,
		OperatingSystem: &opSystem,
	}
	if err := s.devices.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update は指定されたフィールドのみを更新する。
func (s *DeviceService) Update(ctx context.Context, id int64, in DeviceInput) (*model.Device, error) {
	d, err := s.devices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errDeviceNotFound()
	}

	if in.Name.Present {
		if !in.Name.Valid {
			return nil, errDeviceFieldsRequired()
		}
		d.Name = s.sanitizer.Clean(in.Name.Value)
	}
	if in.IP.Present {
		if !in.IP.Valid {
			return nil, errDeviceFieldsRequired()
		}
		d.IP = in.IP.Value
	}
	if in.OperatingSystem.Present {
		if in.OperatingSystem.Valid {
			opSystem := s.sanitizer.Clean(in.OperatingSystem.Value)
			d.OperatingSystem = &opSystem
		} else {
			d.OperatingSystem = nil
		}
	}

	if err := s.devices.Update(ctx, d); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errDeviceNotFound()
		}
		return nil, err
	}
	return d, nil
}

func (s *DeviceService) Delete(ctx context.Context, id int64) error {
	err := s.devices.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return errDeviceNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}

func errDeviceNotFound() *model.APIError {
	return model.NewNotFoundError("Device not found")
}

func errDeviceFieldsRequired() *model.APIError {
	return model.NewValidationError("Device name and IP address are required")
}
