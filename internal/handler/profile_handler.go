package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/account"
	"github.com/hitoshi/mssecurity/internal/model"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	List(ctx context.Context) ([]*model.Profile, error)
	Get(ctx context.Context, id int64) (*model.Profile, error)
	GetByUser(ctx context.Context, userID int64) (*model.Profile, error)
	Create(ctx context.Context, userID int64, in account.ProfileInput) (*model.Profile, error)
	Update(ctx context.Context, id int64, in account.ProfileInput) (*model.Profile, error)
	Delete(ctx context.Context, id int64) error
}

// ProfileHandler はプロフィールのHTTPハンドラー。
// 作成・更新はmultipart/form-data（phone、photo）で受け付ける。
type ProfileHandler struct {
	service        ProfileServiceInterface
	imageDir       string
	maxUploadBytes int64
}

// NewProfileHandler はProfileHandlerを生成する。imageDirはプロフィール画像の保存ディレクトリ。
func NewProfileHandler(service ProfileServiceInterface, imageDir string, maxUploadBytes int64) *ProfileHandler {
	return &ProfileHandler{
		service:        service,
		imageDir:       imageDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// profileForm はフォームフィールドの形式検証用。
type profileForm struct {
	Phone model.OptionalString `json:"phone" validate:"omitempty,max=20"`
}

// RegisterRoutes は/api/profiles配下のルートを登録する。
// uploadはマルチパートを受け付けるルートにだけ適用するミドルウェア（nil可）。
func (h *ProfileHandler) RegisterRoutes(r chi.Router, upload func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Get("/user/{user_id:"+idPattern+"}", h.GetByUser)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
	r.Get("/{filename}", h.GetImage)

	withUpload(r, upload).Post("/user/{user_id:"+idPattern+"}", h.Create)
	withUpload(r, upload).Put("/{id:"+idPattern+"}", h.Update)
}

// List は全プロフィールを返す。
// GET /api/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// Get は指定IDのプロフィールを返す。
// GET /api/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
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

// GetByUser はユーザーのプロフィールを返す。
// GET /api/profiles/user/{user_id}
func (h *ProfileHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	p, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create はユーザーのプロフィールを作成する。
// POST /api/profiles/user/{user_id}
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	in, req, apiErr := h.parseInput(w, r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	defer req.Close()

	p, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update は電話番号と写真を更新する。
// PUT /api/profiles/{id}
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	in, req, apiErr := h.parseInput(w, r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	defer req.Close()

	p, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete はプロフィールと写真ファイルを削除する。
// DELETE /api/profiles/{id}
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Profile")
}

// GetImage はプロフィール画像を返す。
// GET /api/profiles/{filename}
func (h *ProfileHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	serveImage(w, r, h.imageDir, chi.URLParam(r, "filename"))
}

func (h *ProfileHandler) parseInput(w http.ResponseWriter, r *http.Request) (account.ProfileInput, *multipartRequest, *model.APIError) {
	req, apiErr := parseMultipart(w, r, h.maxUploadBytes)
	if apiErr != nil {
		return account.ProfileInput{}, nil, apiErr
	}
	form := profileForm{Phone: req.value("phone")}
	if apiErr := validateRequest(&form); apiErr != nil {
		req.Close()
		return account.ProfileInput{}, nil, apiErr
	}
	return account.ProfileInput{Phone: form.Phone, Photo: req.photo}, req, nil
}

// withUpload はアップロード用ミドルウェアを適用したルーターを返す。
func withUpload(r chi.Router, upload func(http.Handler) http.Handler) chi.Router {
	if upload == nil {
		return r
	}
	return r.With(upload)
}
