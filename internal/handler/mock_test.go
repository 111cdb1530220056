package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/account"
	"github.com/hitoshi/mssecurity/internal/credential"
	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/rbac"
	"github.com/hitoshi/mssecurity/internal/user"
)

// --- テストヘルパー ---

// withChiURLParams はテスト用にchiのURLパラメータを注入するヘルパー。
// 引数はkey, value, key, value...の順に渡す。
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディを任意の型にデコードするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// --- モック定義 ---

type mockUserService struct {
	listFn   func(ctx context.Context) ([]*model.User, error)
	getFn    func(ctx context.Context, id int64) (*model.User, error)
	createFn func(ctx context.Context, in user.Input) (*model.User, error)
	updateFn func(ctx context.Context, id int64, in user.Input) (*model.User, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.User{}, nil
}

func (m *mockUserService) Get(ctx context.Context, id int64) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserService) Create(ctx context.Context, in user.Input) (*model.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.User{ID: 1}, nil
}

func (m *mockUserService) Update(ctx context.Context, id int64, in user.Input) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockProfileService struct {
	getByUserFn func(ctx context.Context, userID int64) (*model.Profile, error)
	createFn    func(ctx context.Context, userID int64, in account.ProfileInput) (*model.Profile, error)
	updateFn    func(ctx context.Context, id int64, in account.ProfileInput) (*model.Profile, error)
}

func (m *mockProfileService) List(ctx context.Context) ([]*model.Profile, error) {
	return []*model.Profile{}, nil
}

func (m *mockProfileService) Get(ctx context.Context, id int64) (*model.Profile, error) {
	return &model.Profile{ID: id}, nil
}

func (m *mockProfileService) GetByUser(ctx context.Context, userID int64) (*model.Profile, error) {
	if m.getByUserFn != nil {
		return m.getByUserFn(ctx, userID)
	}
	return &model.Profile{ID: 1, UserID: userID}, nil
}

func (m *mockProfileService) Create(ctx context.Context, userID int64, in account.ProfileInput) (*model.Profile, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return &model.Profile{ID: 1, UserID: userID}, nil
}

func (m *mockProfileService) Update(ctx context.Context, id int64, in account.ProfileInput) (*model.Profile, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.Profile{ID: id}, nil
}

func (m *mockProfileService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockAddressService struct {
	createFn func(ctx context.Context, userID int64, in account.AddressInput) (*model.Address, error)
}

func (m *mockAddressService) List(ctx context.Context) ([]*model.Address, error) {
	return []*model.Address{}, nil
}

func (m *mockAddressService) Get(ctx context.Context, id int64) (*model.Address, error) {
	return &model.Address{ID: id}, nil
}

func (m *mockAddressService) GetByUser(ctx context.Context, userID int64) (*model.Address, error) {
	return &model.Address{ID: 1, UserID: userID}, nil
}

func (m *mockAddressService) Create(ctx context.Context, userID int64, in account.AddressInput) (*model.Address, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return &model.Address{ID: 1, UserID: userID}, nil
}

func (m *mockAddressService) Update(ctx context.Context, id int64, in account.AddressInput) (*model.Address, error) {
	return &model.Address{ID: id}, nil
}

func (m *mockAddressService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockSignatureService struct {
	createFn func(ctx context.Context, userID int64, photo *account.Upload) (*model.DigitalSignature, error)
}

func (m *mockSignatureService) List(ctx context.Context) ([]*model.DigitalSignature, error) {
	return []*model.DigitalSignature{}, nil
}

func (m *mockSignatureService) Get(ctx context.Context, id int64) (*model.DigitalSignature, error) {
	return &model.DigitalSignature{ID: id}, nil
}

func (m *mockSignatureService) GetByUser(ctx context.Context, userID int64) (*model.DigitalSignature, error) {
	return &model.DigitalSignature{ID: 1, UserID: userID}, nil
}

func (m *mockSignatureService) Create(ctx context.Context, userID int64, photo *account.Upload) (*model.DigitalSignature, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, photo)
	}
	return &model.DigitalSignature{ID: 1, UserID: userID}, nil
}

func (m *mockSignatureService) Update(ctx context.Context, id int64, photo *account.Upload) (*model.DigitalSignature, error) {
	return &model.DigitalSignature{ID: id}, nil
}

func (m *mockSignatureService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockDeviceService struct {
	createFn func(ctx context.Context, userID int64, in account.DeviceInput) (*model.Device, error)
}

func (m *mockDeviceService) List(ctx context.Context) ([]*model.Device, error) {
	return []*model.Device{}, nil
}

func (m *mockDeviceService) Get(ctx context.Context, id int64) (*model.Device, error) {
	return &model.Device{ID: id}, nil
}

func (m *mockDeviceService) ListByUser(ctx context.Context, userID int64) ([]*model.Device, error) {
	return []*model.Device{}, nil
}

func (m *mockDeviceService) Create(ctx context.Context, userID int64, in account.DeviceInput) (*model.Device, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return &model.Device{ID: 1, UserID: userID}, nil
}

func (m *mockDeviceService) Update(ctx context.Context, id int64, in account.DeviceInput) (*model.Device, error) {
	return &model.Device{ID: id}, nil
}

func (m *mockDeviceService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockSessionService struct {
	getFn    func(ctx context.Context, id string) (*model.Session, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockSessionService) List(ctx context.Context) ([]*model.Session, error) {
	return []*model.Session{}, nil
}

func (m *mockSessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Session{ID: id}, nil
}

func (m *mockSessionService) ListByUser(ctx context.Context, userID int64) ([]*model.Session, error) {
	return []*model.Session{}, nil
}

func (m *mockSessionService) Create(ctx context.Context, userID int64, in credential.SessionInput) (*model.Session, error) {
	return &model.Session{UserID: userID}, nil
}

func (m *mockSessionService) Update(ctx context.Context, id string, in credential.SessionInput) (*model.Session, error) {
	return &model.Session{ID: id}, nil
}

func (m *mockSessionService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockPasswordService struct {
	getCurrentFn func(ctx context.Context, userID int64) (*model.Password, error)
	createFn     func(ctx context.Context, userID int64, in credential.PasswordInput) (*model.Password, error)
	updateFn     func(ctx context.Context, id int64, in credential.PasswordInput) (*model.Password, error)
}

func (m *mockPasswordService) List(ctx context.Context) ([]*model.Password, error) {
	return []*model.Password{}, nil
}

func (m *mockPasswordService) Get(ctx context.Context, id int64) (*model.Password, error) {
	return &model.Password{ID: id}, nil
}

func (m *mockPasswordService) ListByUser(ctx context.Context, userID int64) ([]*model.Password, error) {
	return []*model.Password{}, nil
}

func (m *mockPasswordService) GetCurrent(ctx context.Context, userID int64) (*model.Password, error) {
	if m.getCurrentFn != nil {
		return m.getCurrentFn(ctx, userID)
	}
	return &model.Password{UserID: userID}, nil
}

func (m *mockPasswordService) Create(ctx context.Context, userID int64, in credential.PasswordInput) (*model.Password, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return &model.Password{ID: 1, UserID: userID}, nil
}

func (m *mockPasswordService) Update(ctx context.Context, id int64, in credential.PasswordInput) (*model.Password, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.Password{ID: id}, nil
}

func (m *mockPasswordService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockQuestionService struct {
	createFn func(ctx context.Context, in credential.QuestionInput) (*model.SecurityQuestion, error)
}

func (m *mockQuestionService) List(ctx context.Context) ([]*model.SecurityQuestion, error) {
	return []*model.SecurityQuestion{}, nil
}

func (m *mockQuestionService) Get(ctx context.Context, id int64) (*model.SecurityQuestion, error) {
	return &model.SecurityQuestion{ID: id}, nil
}

func (m *mockQuestionService) Create(ctx context.Context, in credential.QuestionInput) (*model.SecurityQuestion, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.SecurityQuestion{ID: 1}, nil
}

func (m *mockQuestionService) Update(ctx context.Context, id int64, in credential.QuestionInput) (*model.SecurityQuestion, error) {
	return &model.SecurityQuestion{ID: id}, nil
}

func (m *mockQuestionService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockAnswerService struct {
	getByPairFn func(ctx context.Context, userID, questionID int64) (*model.Answer, error)
	createFn    func(ctx context.Context, userID, questionID int64, in credential.AnswerInput) (*model.Answer, error)
}

func (m *mockAnswerService) List(ctx context.Context) ([]*model.Answer, error) {
	return []*model.Answer{}, nil
}

func (m *mockAnswerService) Get(ctx context.Context, id int64) (*model.Answer, error) {
	return &model.Answer{ID: id}, nil
}

func (m *mockAnswerService) ListByUser(ctx context.Context, userID int64) ([]*model.Answer, error) {
	return []*model.Answer{}, nil
}

func (m *mockAnswerService) ListByQuestion(ctx context.Context, questionID int64) ([]*model.Answer, error) {
	return []*model.Answer{}, nil
}

func (m *mockAnswerService) GetByUserAndQuestion(ctx context.Context, userID, questionID int64) (*model.Answer, error) {
	if m.getByPairFn != nil {
		return m.getByPairFn(ctx, userID, questionID)
	}
	return &model.Answer{UserID: userID, SecurityQuestionID: questionID}, nil
}

func (m *mockAnswerService) Create(ctx context.Context, userID, questionID int64, in credential.AnswerInput) (*model.Answer, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, questionID, in)
	}
	return &model.Answer{ID: 1, UserID: userID, SecurityQuestionID: questionID}, nil
}

func (m *mockAnswerService) Update(ctx context.Context, id int64, in credential.AnswerInput) (*model.Answer, error) {
	return &model.Answer{ID: id}, nil
}

func (m *mockAnswerService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockRoleService struct {
	createFn func(ctx context.Context, in rbac.RoleInput) (*model.Role, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockRoleService) List(ctx context.Context) ([]*model.Role, error) {
	return []*model.Role{}, nil
}

func (m *mockRoleService) Get(ctx context.Context, id int64) (*model.Role, error) {
	return &model.Role{ID: id}, nil
}

func (m *mockRoleService) Create(ctx context.Context, in rbac.RoleInput) (*model.Role, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Role{ID: 1}, nil
}

func (m *mockRoleService) Update(ctx context.Context, id int64, in rbac.RoleInput) (*model.Role, error) {
	return &model.Role{ID: id}, nil
}

func (m *mockRoleService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockPermissionService struct {
	createFn      func(ctx context.Context, in rbac.PermissionInput) (*model.Permission, error)
	buildMatrixFn func(ctx context.Context, roleID int64) ([]model.PermissionGroup, error)
}

func (m *mockPermissionService) List(ctx context.Context) ([]*model.Permission, error) {
	return []*model.Permission{}, nil
}

func (m *mockPermissionService) Get(ctx context.Context, id int64) (*model.Permission, error) {
	return &model.Permission{ID: id}, nil
}

func (m *mockPermissionService) Create(ctx context.Context, in rbac.PermissionInput) (*model.Permission, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Permission{ID: 1}, nil
}

func (m *mockPermissionService) Update(ctx context.Context, id int64, in rbac.PermissionInput) (*model.Permission, error) {
	return &model.Permission{ID: id}, nil
}

func (m *mockPermissionService) Delete(ctx context.Context, id int64) error {
	return nil
}

func (m *mockPermissionService) BuildMatrix(ctx context.Context, roleID int64) ([]model.PermissionGroup, error) {
	if m.buildMatrixFn != nil {
		return m.buildMatrixFn(ctx, roleID)
	}
	return []model.PermissionGroup{}, nil
}

type mockUserRoleService struct {
	listActiveFn func(ctx context.Context, userID int64) ([]*model.UserRole, error)
	createFn     func(ctx context.Context, userID, roleID int64, in rbac.WindowInput) (*model.UserRole, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockUserRoleService) List(ctx context.Context) ([]*model.UserRole, error) {
	return []*model.UserRole{}, nil
}

func (m *mockUserRoleService) Get(ctx context.Context, id string) (*model.UserRole, error) {
	return &model.UserRole{ID: id}, nil
}

func (m *mockUserRoleService) ListByUser(ctx context.Context, userID int64) ([]*model.UserRole, error) {
	return []*model.UserRole{}, nil
}

func (m *mockUserRoleService) ListByRole(ctx context.Context, roleID int64) ([]*model.UserRole, error) {
	return []*model.UserRole{}, nil
}

func (m *mockUserRoleService) ListActiveByUser(ctx context.Context, userID int64) ([]*model.UserRole, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, userID)
	}
	return []*model.UserRole{}, nil
}

func (m *mockUserRoleService) CreateAssignment(ctx context.Context, userID, roleID int64, in rbac.WindowInput) (*model.UserRole, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, roleID, in)
	}
	return &model.UserRole{UserID: userID, RoleID: roleID}, nil
}

func (m *mockUserRoleService) Update(ctx context.Context, id string, in rbac.WindowInput) (*model.UserRole, error) {
	return &model.UserRole{ID: id}, nil
}

func (m *mockUserRoleService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockRolePermissionService struct {
	createFn     func(ctx context.Context, roleID, permissionID int64) (*model.RolePermission, error)
	deleteFn     func(ctx context.Context, roleID, permissionID int64) error
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockRolePermissionService) List(ctx context.Context) ([]*model.RolePermission, error) {
	return []*model.RolePermission{}, nil
}

func (m *mockRolePermissionService) Get(ctx context.Context, id string) (*model.RolePermission, error) {
	return &model.RolePermission{ID: id}, nil
}

func (m *mockRolePermissionService) ListByRole(ctx context.Context, roleID int64) ([]*model.RolePermission, error) {
	return []*model.RolePermission{}, nil
}

func (m *mockRolePermissionService) ListByPermission(ctx context.Context, permissionID int64) ([]*model.RolePermission, error) {
	return []*model.RolePermission{}, nil
}

func (m *mockRolePermissionService) Create(ctx context.Context, roleID, permissionID int64) (*model.RolePermission, error) {
	if m.createFn != nil {
		return m.createFn(ctx, roleID, permissionID)
	}
	return &model.RolePermission{RoleID: roleID, PermissionID: permissionID}, nil
}

func (m *mockRolePermissionService) Delete(ctx context.Context, roleID, permissionID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, roleID, permissionID)
	}
	return nil
}

func (m *mockRolePermissionService) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}
