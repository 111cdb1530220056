package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/rbac"
)

// PermissionServiceInterface は権限ハンドラーが必要とするサービスインターフェース。
type PermissionServiceInterface interface {
	List(ctx context.Context) ([]*model.Permission, error)
	Get(ctx context.Context, id int64) (*model.Permission, error)
	Create(ctx context.Context, in rbac.PermissionInput) (*model.Permission, error)
	Update(ctx context.Context, id int64, in rbac.PermissionInput) (*model.Permission, error)
	Delete(ctx context.Context, id int64) error
	// BuildMatrix は全権限をentityごとにまとめ、ロールの保持状況を注釈して返す。
	BuildMatrix(ctx context.Context, roleID int64) ([]model.PermissionGroup, error)
}

// PermissionHandler は権限のHTTPハンドラー。
type PermissionHandler struct {
	service PermissionServiceInterface
}

// NewPermissionHandler はPermissionHandlerを生成する。
func NewPermissionHandler(service PermissionServiceInterface) *PermissionHandler {
	return &PermissionHandler{service: service}
}

type permissionRequest struct {
	URL    model.OptionalString `json:"url" validate:"omitempty,max=255"`
	Method model.OptionalString `json:"method" validate:"omitempty,max=10"`
	Entity model.OptionalString `json:"entity" validate:"omitempty,max=100"`
}

func (req permissionRequest) toInput() rbac.PermissionInput {
	return rbac.PermissionInput{URL: req.URL, Method: req.Method, Entity: req.Entity}
}

// RegisterRoutes は/api/permissions配下のルートを登録する。
func (h *PermissionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/grouped/role/{role_id:"+idPattern+"}", h.GroupedByRole)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Put("/{id:"+idPattern+"}", h.Update)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
}

// List は全権限を返す。
// GET /api/permissions
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, permissions)
}

// Get は指定IDの権限を返す。
// GET /api/permissions/{id}
func (h *PermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GroupedByRole は権限マトリクスを返す。
// GET /api/permissions/grouped/role/{role_id}
func (h *PermissionHandler) GroupedByRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := int64Param(w, r, "role_id")
	if !ok {
		return
	}
	groups, err := h.service.BuildMatrix(r.Context(), roleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// Create は権限を作成する。
// POST /api/permissions
func (h *PermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	p, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update は権限を更新する。
// PUT /api/permissions/{id}
func (h *PermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req permissionRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	p, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete は権限を削除する。
// DELETE /api/permissions/{id}
func (h *PermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Permission")
}
