package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/rbac"
)

// UserRoleServiceInterface はロール割り当てハンドラーが必要とするサービスインターフェース。
type UserRoleServiceInterface interface {
	List(ctx context.Context) ([]*model.UserRole, error)
	Get(ctx context.Context, id string) (*model.UserRole, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.UserRole, error)
	ListByRole(ctx context.Context, roleID int64) ([]*model.UserRole, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]*model.UserRole, error)
	CreateAssignment(ctx context.Context, userID, roleID int64, in rbac.WindowInput) (*model.UserRole, error)
	Update(ctx context.Context, id string, in rbac.WindowInput) (*model.UserRole, error)
	Delete(ctx context.Context, id string) error
}

// UserRoleHandler はユーザーへのロール割り当てのHTTPハンドラー。
type UserRoleHandler struct {
	service UserRoleServiceInterface
}

// NewUserRoleHandler はUserRoleHandlerを生成する。
func NewUserRoleHandler(service UserRoleServiceInterface) *UserRoleHandler {
	return &UserRoleHandler{service: service}
}

type windowRequest struct {
	StartAt model.OptionalString `json:"startAt"`
	EndAt   model.OptionalString `json:"endAt"`
}

// RegisterRoutes は/api/user-roles配下のルートを登録する。
func (h *UserRoleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/user/{user_id:"+idPattern+"}", h.ListByUser)
	r.Get("/user/{user_id:"+idPattern+"}/active", h.ListActiveByUser)
	r.Get("/role/{role_id:"+idPattern+"}", h.ListByRole)
	r.Post("/user/{user_id:"+idPattern+"}/role/{role_id:"+idPattern+"}", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List は全割り当てを返す。
// GET /api/user-roles
func (h *UserRoleHandler) List(w http.ResponseWriter, r *http.Request) {
	userRoles, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userRoles)
}

// Get は指定IDの割り当てを返す。
// GET /api/user-roles/{id}
func (h *UserRoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	ur, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ur)
}

// ListByUser はユーザーの割り当て一覧を返す。
// GET /api/user-roles/user/{user_id}
func (h *UserRoleHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	userRoles, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userRoles)
}

// ListActiveByUser はユーザーの現在有効な割り当てを返す。
// GET /api/user-roles/user/{user_id}/active
func (h *UserRoleHandler) ListActiveByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	userRoles, err := h.service.ListActiveByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userRoles)
}

// ListByRole はロールの割り当て一覧を返す。
// GET /api/user-roles/role/{role_id}
func (h *UserRoleHandler) ListByRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := int64Param(w, r, "role_id")
	if !ok {
		return
	}
	userRoles, err := h.service.ListByRole(r.Context(), roleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userRoles)
}

// Create はユーザーにロールを割り当てる。
// POST /api/user-roles/user/{user_id}/role/{role_id}
func (h *UserRoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	roleID, ok := int64Param(w, r, "role_id")
	if !ok {
		return
	}
	var req windowRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	ur, err := h.service.CreateAssignment(r.Context(), userID, roleID, rbac.WindowInput{StartAt: req.StartAt, EndAt: req.EndAt})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ur)
}

// Update は割り当ての有効期間を更新する。
// PUT /api/user-roles/{id}
func (h *UserRoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req windowRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	ur, err := h.service.Update(r.Context(), id, rbac.WindowInput{StartAt: req.StartAt, EndAt: req.EndAt})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ur)
}

// Delete は割り当てを削除する。
// DELETE /api/user-roles/{id}
func (h *UserRoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "User-Role relationship")
}
