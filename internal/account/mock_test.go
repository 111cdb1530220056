package account

import (
	"context"
	"fmt"
	"io"

	"github.com/hitoshi/mssecurity/internal/model"
)

// --- モック ---

type mockUserFinder struct {
	missing bool
}

func (m *mockUserFinder) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.missing {
		return nil, nil
	}
	return &model.User{ID: id}, nil
}

// memFileStore は保存・削除を記録するファイルストア。
type memFileStore struct {
	saved   map[string]string
	removed []string
	seq     int
	saveErr error
}

func newMemFileStore() *memFileStore {
	return &memFileStore{saved: make(map[string]string)}
}

func (m *memFileStore) Save(namespace, originalName string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.seq++
	path := fmt.Sprintf("%s/%d_%s", namespace, m.seq, originalName)
	m.saved[path] = string(data)
	return path, nil
}

func (m *memFileStore) Remove(relPath string) error {
	m.removed = append(m.removed, relPath)
	delete(m.saved, relPath)
	return nil
}

type mockProfileRepo struct {
	findByIDFn     func(ctx context.Context, id int64) (*model.Profile, error)
	findByUserIDFn func(ctx context.Context, userID int64) (*model.Profile, error)
	createFn       func(ctx context.Context, p *model.Profile) error
	updateFn       func(ctx context.Context, p *model.Profile) error
	deleteByIDFn   func(ctx context.Context, id int64) error
}

func (m *mockProfileRepo) List(ctx context.Context) ([]*model.Profile, error) { return nil, nil }
func (m *mockProfileRepo) FindByID(ctx context.Context, id int64) (*model.Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	if m.findByUserIDFn != nil {
		return m.findByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockProfileRepo) Create(ctx context.Context, p *model.Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}
func (m *mockProfileRepo) Update(ctx context.Context, p *model.Profile) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}
func (m *mockProfileRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSignatureRepo struct {
	findByIDFn     func(ctx context.Context, id int64) (*model.DigitalSignature, error)
	findByUserIDFn func(ctx context.Context, userID int64) (*model.DigitalSignature, error)
	createFn       func(ctx context.Context, d *model.DigitalSignature) error
	updateFn       func(ctx context.Context, d *model.DigitalSignature) error
}

func (m *mockSignatureRepo) List(ctx context.Context) ([]*model.DigitalSignature, error) {
	return nil, nil
}
func (m *mockSignatureRepo) FindByID(ctx context.Context, id int64) (*model.DigitalSignature, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSignatureRepo) FindByUserID(ctx context.Context, userID int64) (*model.DigitalSignature, error) {
	if m.findByUserIDFn != nil {
		return m.findByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockSignatureRepo) Create(ctx context.Context, d *model.DigitalSignature) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return nil
}
func (m *mockSignatureRepo) Update(ctx context.Context, d *model.DigitalSignature) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, d)
	}
	return nil
}
func (m *mockSignatureRepo) DeleteByID(ctx context.Context, id int64) error { return nil }

type mockAddressRepo struct {
	findByIDFn     func(ctx context.Context, id int64) (*model.Address, error)
	findByUserIDFn func(ctx context.Context, userID int64) (*model.Address, error)
	createFn       func(ctx context.Context, a *model.Address) error
}

func (m *mockAddressRepo) List(ctx context.Context) ([]*model.Address, error) { return nil, nil }
func (m *mockAddressRepo) FindByID(ctx context.Context, id int64) (*model.Address, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockAddressRepo) FindByUserID(ctx context.Context, userID int64) (*model.Address, error) {
	if m.findByUserIDFn != nil {
		return m.findByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockAddressRepo) Create(ctx context.Context, a *model.Address) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}
func (m *mockAddressRepo) Update(ctx context.Context, a *model.Address) error { return nil }
func (m *mockAddressRepo) DeleteByID(ctx context.Context, id int64) error     { return nil }

type mockDeviceRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*model.Device, error)
	createFn   func(ctx context.Context, d *model.Device) error
}

func (m *mockDeviceRepo) List(ctx context.Context) ([]*model.Device, error) { return nil, nil }
func (m *mockDeviceRepo) FindByID(ctx context.Context, id int64) (*model.Device, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockDeviceRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Device, error) {
	return nil, nil
}
func (m *mockDeviceRepo) Create(ctx context.Context, d *model.Device) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return nil
}
func (m *mockDeviceRepo) Update(ctx context.Context, d *model.Device) error { return nil }
func (m *mockDeviceRepo) DeleteByID(ctx context.Context, id int64) error    { return nil }

type passthroughSanitizer struct{}

func (passthroughSanitizer) Clean(s string) string { return s }

func apiError(err error) *model.APIError {
	apiErr, _ := err.(*model.APIError)
	return apiErr
}
