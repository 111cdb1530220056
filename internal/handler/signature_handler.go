package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/account"
	"github.com/hitoshi/mssecurity/internal/model"
)

// DigitalSignatureServiceInterface は電子署名ハンドラーが必要とするサービスインターフェース。
type DigitalSignatureServiceInterface interface {
	List(ctx context.Context) ([]*model.DigitalSignature, error)
	Get(ctx context.Context, id int64) (*model.DigitalSignature, error)
	GetByUser(ctx context.Context, userID int64) (*model.DigitalSignature, error)
	Create(ctx context.Context, userID int64, photo *account.Upload) (*model.DigitalSignature, error)
	Update(ctx context.Context, id int64, photo *account.Upload) (*model.DigitalSignature, error)
	Delete(ctx context.Context, id int64) error
}

// DigitalSignatureHandler は電子署名のHTTPハンドラー。
type DigitalSignatureHandler struct {
	service        DigitalSignatureServiceInterface
	imageDir       string
	maxUploadBytes int64
}

// NewDigitalSignatureHandler はDigitalSignatureHandlerを生成する。
func NewDigitalSignatureHandler(service DigitalSignatureServiceInterface, imageDir string, maxUploadBytes int64) *DigitalSignatureHandler {
	return &DigitalSignatureHandler{
		service:        service,
		imageDir:       imageDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes は/api/digital-signatures配下のルートを登録する。
func (h *DigitalSignatureHandler) RegisterRoutes(r chi.Router, upload func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Get("/user/{user_id:"+idPattern+"}", h.GetByUser)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
	r.Get("/{filename}", h.GetImage)

	withUpload(r, upload).Post("/user/{user_id:"+idPattern+"}", h.Create)
	withUpload(r, upload).Put("/{id:"+idPattern+"}", h.Update)
}

// List は全電子署名を返す。
// GET /api/digital-signatures
func (h *DigitalSignatureHandler) List(w http.ResponseWriter, r *http.Request) {
	sigs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sigs)
}

// Get は指定IDの電子署名を返す。
// GET /api/digital-signatures/{id}
func (h *DigitalSignatureHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	sig, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

// GetByUser はユーザーの電子署名を返す。
// GET /api/digital-signatures/user/{user_id}
func (h *DigitalSignatureHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	sig, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

// Create はユーザーの電子署名を登録する。
// POST /api/digital-signatures/user/{user_id}
func (h *DigitalSignatureHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	req, apiErr := parseMultipart(w, r, h.maxUploadBytes)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	defer req.Close()

	sig, err := h.service.Create(r.Context(), userID, req.photo)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sig)
}

// Update は署名画像を差し替える。
// PUT /api/digital-signatures/{id}
func (h *DigitalSignatureHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	req, apiErr := parseMultipart(w, r, h.maxUploadBytes)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	defer req.Close()

	sig, err := h.service.Update(r.Context(), id, req.photo)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

// Delete は電子署名と画像ファイルを削除する。
// DELETE /api/digital-signatures/{id}
func (h *DigitalSignatureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Digital signature")
}

// GetImage は署名画像を返す。
// GET /api/digital-signatures/{filename}
func (h *DigitalSignatureHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	serveImage(w, r, h.imageDir, chi.URLParam(r, "filename"))
}
