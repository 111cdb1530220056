package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/model"
)

// RolePermissionServiceInterface はロール権限関連ハンドラーが必要とするサービスインターフェース。
type RolePermissionServiceInterface interface {
	List(ctx context.Context) ([]*model.RolePermission, error)
	Get(ctx context.Context, id string) (*model.RolePermission, error)
	ListByRole(ctx context.Context, roleID int64) ([]*model.RolePermission, error)
	ListByPermission(ctx context.Context, permissionID int64) ([]*model.RolePermission, error)
	Create(ctx context.Context, roleID, permissionID int64) (*model.RolePermission, error)
	Delete(ctx context.Context, roleID, permissionID int64) error
	DeleteByID(ctx context.Context, id string) error
}

// RolePermissionHandler はロールと権限の関連のHTTPハンドラー。
// 関連は作成と削除のみで、更新はできない。
type RolePermissionHandler struct {
	service RolePermissionServiceInterface
}

// NewRolePermissionHandler はRolePermissionHandlerを生成する。
func NewRolePermissionHandler(service RolePermissionServiceInterface) *RolePermissionHandler {
	return &RolePermissionHandler{service: service}
}

// RegisterRoutes は/api/role-permissions配下のルートを登録する。
func (h *RolePermissionHandler) RegisterRoutes(r chi.Router) {
	pair := "/role/{role_id:" + idPattern + "}/permission/{permission_id:" + idPattern + "}"

	r.Get("/", h.List)
	r.Get("/role/{role_id:"+idPattern+"}", h.ListByRole)
	r.Get("/permission/{permission_id:"+idPattern+"}", h.ListByPermission)
	r.Post(pair, h.Create)
	r.Delete(pair, h.DeletePair)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
}

// List は全関連を返す。
// GET /api/role-permissions
func (h *RolePermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	rps, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rps)
}

// Get は指定IDの関連を返す。
// GET /api/role-permissions/{id}
func (h *RolePermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	rp, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rp)
}

// ListByRole はロールに付与された関連一覧を返す。
// GET /api/role-permissions/role/{role_id}
func (h *RolePermissionHandler) ListByRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := int64Param(w, r, "role_id")
	if !ok {
		return
	}
	rps, err := h.service.ListByRole(r.Context(), roleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rps)
}

// ListByPermission は権限を付与されたロールの関連一覧を返す。
// GET /api/role-permissions/permission/{permission_id}
func (h *RolePermissionHandler) ListByPermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := int64Param(w, r, "permission_id")
	if !ok {
		return
	}
	rps, err := h.service.ListByPermission(r.Context(), permissionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rps)
}

// Create はロールに権限を付与する。ボディは不要。
// POST /api/role-permissions/role/{role_id}/permission/{permission_id}
func (h *RolePermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	roleID, permissionID, ok := h.pairParams(w, r)
	if !ok {
		return
	}
	rp, err := h.service.Create(r.Context(), roleID, permissionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rp)
}

// DeletePair はロールと権限の組で関連を削除する。
// DELETE /api/role-permissions/role/{role_id}/permission/{permission_id}
func (h *RolePermissionHandler) DeletePair(w http.ResponseWriter, r *http.Request) {
	roleID, permissionID, ok := h.pairParams(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), roleID, permissionID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Role-Permission relationship")
}

// Delete はIDで関連を削除する。
// DELETE /api/role-permissions/{id}
func (h *RolePermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Role-Permission relationship")
}

func (h *RolePermissionHandler) pairParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	roleID, ok := int64Param(w, r, "role_id")
	if !ok {
		return 0, 0, false
	}
	permissionID, ok := int64Param(w, r, "permission_id")
	if !ok {
		return 0, 0, false
	}
	return roleID, permissionID, true
}
