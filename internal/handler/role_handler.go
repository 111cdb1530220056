package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/rbac"
)

// RoleServiceInterface はロールハンドラーが必要とするサービスインターフェース。
type RoleServiceInterface interface {
	List(ctx context.Context) ([]*model.Role, error)
	Get(ctx context.Context, id int64) (*model.Role, error)
	Create(ctx context.Context, in rbac.RoleInput) (*model.Role, error)
	Update(ctx context.Context, id int64, in rbac.RoleInput) (*model.Role, error)
	Delete(ctx context.Context, id int64) error
}

// RoleHandler はロールのHTTPハンドラー。
type RoleHandler struct {
	service RoleServiceInterface
}

// NewRoleHandler はRoleHandlerを生成する。
func NewRoleHandler(service RoleServiceInterface) *RoleHandler {
	return &RoleHandler{service: service}
}

type roleRequest struct {
	Name        model.OptionalString `json:"name" validate:"omitempty,max=100"`
	Description model.OptionalString `json:"description"`
}

// RegisterRoutes は/api/roles配下のルートを登録する。
func (h *RoleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Put("/{id:"+idPattern+"}", h.Update)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
}

// List は全ロールを返す。
// GET /api/roles
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// Get は指定IDのロールを返す。
// GET /api/roles/{id}
func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// Create はロールを作成する。
// POST /api/roles
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	role, err := h.service.Create(r.Context(), rbac.RoleInput{Name: req.Name, Description: req.Description})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

// Update はロールを更新する。
// PUT /api/roles/{id}
func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req roleRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	role, err := h.service.Update(r.Context(), id, rbac.RoleInput{Name: req.Name, Description: req.Description})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// Delete はロールを削除する。関連するロール割り当てと権限関連も削除される。
// DELETE /api/roles/{id}
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Role")
}
