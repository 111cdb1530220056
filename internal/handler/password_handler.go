package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/credential"
	"github.com/hitoshi/mssecurity/internal/model"
)

// PasswordServiceInterface はパスワードハンドラーが必要とするサービスインターフェース。
type PasswordServiceInterface interface {
	List(ctx context.Context) ([]*model.Password, error)
	Get(ctx context.Context, id int64) (*model.Password, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Password, error)
	// GetCurrent は現在時刻に有効なパスワードのうち開始日時が最も新しいものを返す。
	GetCurrent(ctx context.Context, userID int64) (*model.Password, error)
	// Create は無期限のパスワードを閉じてから新しいパスワードを登録する。
	Create(ctx context.Context, userID int64, in credential.PasswordInput) (*model.Password, error)
	Update(ctx context.Context, id int64, in credential.PasswordInput) (*model.Password, error)
	Delete(ctx context.Context, id int64) error
}

// PasswordHandler はパスワード履歴のHTTPハンドラー。
// レスポンスにはハッシュ化されたパスワード本体を含めない。
type PasswordHandler struct {
	service PasswordServiceInterface
}

// NewPasswordHandler はPasswordHandlerを生成する。
func NewPasswordHandler(service PasswordServiceInterface) *PasswordHandler {
	return &PasswordHandler{service: service}
}

// passwordRequest はパスワード登録・更新リクエストのボディ。
// startAt、endAtは "YYYY-MM-DD HH:MM:SS" 形式。endAtのnullは無期限を表す。
type passwordRequest struct {
	Content model.OptionalString `json:"content" validate:"omitempty,max=72"`
	StartAt model.OptionalString `json:"startAt"`
	EndAt   model.OptionalString `json:"endAt"`
}

func (req passwordRequest) toInput() credential.PasswordInput {
	return credential.PasswordInput{
		Content: req.Content,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
	}
}

// RegisterRoutes は/api/passwords配下のルートを登録する。
func (h *PasswordHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Get("/user/{user_id:"+idPattern+"}", h.ListByUser)
	r.Get("/user/{user_id:"+idPattern+"}/current", h.GetCurrent)
	r.Post("/user/{user_id:"+idPattern+"}", h.Create)
	r.Put("/{id:"+idPattern+"}", h.Update)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
}

// List は全パスワードレコードを返す。
// GET /api/passwords
func (h *PasswordHandler) List(w http.ResponseWriter, r *http.Request) {
	passwords, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, passwords)
}

// Get は指定IDのパスワードレコードを返す。
// GET /api/passwords/{id}
func (h *PasswordHandler) Get(w http.ResponseWriter, r *http.Request) {
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

// ListByUser はユーザーのパスワード履歴を開始日時の降順で返す。
// GET /api/passwords/user/{user_id}
func (h *PasswordHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	passwords, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, passwords)
}

// GetCurrent はユーザーの現在有効なパスワードを返す。
// GET /api/passwords/user/{user_id}/current
func (h *PasswordHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	p, err := h.service.GetCurrent(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create は新しいパスワードを登録する。
// POST /api/passwords/user/{user_id}
func (h *PasswordHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	var req passwordRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	p, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update はパスワードレコードを更新する。
// PUT /api/passwords/{id}
func (h *PasswordHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req passwordRequest
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

// Delete はパスワードレコードを削除する。
// DELETE /api/passwords/{id}
func (h *PasswordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Password record")
}
