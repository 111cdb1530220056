package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/account"
	"github.com/hitoshi/mssecurity/internal/model"
)

// DeviceServiceInterface は端末ハンドラーが必要とするサービスインターフェース。
type DeviceServiceInterface interface {
	List(ctx context.Context) ([]*model.Device, error)
	Get(ctx context.Context, id int64) (*model.Device, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Device, error)
	Create(ctx context.Context, userID int64, in account.DeviceInput) (*model.Device, error)
	Update(ctx context.Context, id int64, in account.DeviceInput) (*model.Device, error)
	Delete(ctx context.Context, id int64) error
}

// DeviceHandler は端末のHTTPハンドラー。
type DeviceHandler struct {
	service DeviceServiceInterface
}

// NewDeviceHandler はDeviceHandlerを生成する。
func NewDeviceHandler(service DeviceServiceInterface) *DeviceHandler {
	return &DeviceHandler{service: service}
}

type deviceRequest struct {
	Name            model.OptionalString `json:"name" validate:"omitempty,max=100"`
	IP              model.OptionalString `json:"ip" validate:"omitempty,ip"`
	OperatingSystem model.OptionalString `json:"operating_system" validate:"omitempty,max=100"`
}

func (req deviceRequest) toInput() account.DeviceInput {
	return account.DeviceInput{
		Name:            req.Name,
		IP:              req.IP,
		OperatingSystem: req.OperatingSystem,
	}
}

// RegisterRoutes は/api/devices配下のルートを登録する。
func (h *DeviceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Get("/user/{user_id:"+idPattern+"}", h.ListByUser)
	r.Post("/user/{user_id:"+idPattern+"}", h.Create)
	r.Put("/{id:"+idPattern+"}", h.Update)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
}

// List は全端末を返す。
// GET /api/devices
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	devices, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// Get は指定IDの端末を返す。
// GET /api/devices/{id}
func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListByUser はユーザーの端末一覧を返す。
// GET /api/devices/user/{user_id}
func (h *DeviceHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	devices, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// Create はユーザーの端末を登録する。
// POST /api/devices/user/{user_id}
func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	var req deviceRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	d, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// Update は端末情報を更新する。
// PUT /api/devices/{id}
func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req deviceRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	d, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Delete は端末を削除する。
// DELETE /api/devices/{id}
func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Device")
}
