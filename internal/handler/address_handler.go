package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/account"
	"github.com/hitoshi/mssecurity/internal/model"
)

// AddressServiceInterface は住所ハンドラーが必要とするサービスインターフェース。
type AddressServiceInterface interface {
	List(ctx context.Context) ([]*model.Address, error)
	Get(ctx context.Context, id int64) (*model.Address, error)
	GetByUser(ctx context.Context, userID int64) (*model.Address, error)
	Create(ctx context.Context, userID int64, in account.AddressInput) (*model.Address, error)
	Update(ctx context.Context, id int64, in account.AddressInput) (*model.Address, error)
	Delete(ctx context.Context, id int64) error
}

// AddressHandler は住所のHTTPハンドラー。
type AddressHandler struct {
	service AddressServiceInterface
}

// NewAddressHandler はAddressHandlerを生成する。
func NewAddressHandler(service AddressServiceInterface) *AddressHandler {
	return &AddressHandler{service: service}
}

// addressRequest は住所作成・更新リクエストのボディ。
// latitude、longitudeは数値または数値文字列を受け付ける。
type addressRequest struct {
	Street    model.OptionalString `json:"street" validate:"omitempty,max=255"`
	Number    model.OptionalString `json:"number" validate:"omitempty,max=20"`
	Latitude  model.OptionalFloat  `json:"latitude" validate:"omitempty,latitude"`
	Longitude model.OptionalFloat  `json:"longitude" validate:"omitempty,longitude"`
}

func (req addressRequest) toInput() account.AddressInput {
	return account.AddressInput{
		Street:    req.Street,
		Number:    req.Number,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
}

// RegisterRoutes は/api/addresses配下のルートを登録する。
func (h *AddressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Get("/user/{user_id:"+idPattern+"}", h.GetByUser)
	r.Post("/user/{user_id:"+idPattern+"}", h.Create)
	r.Put("/{id:"+idPattern+"}", h.Update)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
}

// List は全住所を返す。
// GET /api/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

// Get は指定IDの住所を返す。
// GET /api/addresses/{id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetByUser はユーザーの住所を返す。
// GET /api/addresses/user/{user_id}
func (h *AddressHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	a, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Create はユーザーの住所を登録する。
// POST /api/addresses/user/{user_id}
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	var req addressRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	a, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// Update は住所を更新する。
// PUT /api/addresses/{id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req addressRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	a, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete は住所を削除する。
// DELETE /api/addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Address")
}
