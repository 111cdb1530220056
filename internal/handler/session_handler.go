package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/credential"
	"github.com/hitoshi/mssecurity/internal/model"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	List(ctx context.Context) ([]*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Session, error)
	Create(ctx context.Context, userID int64, in credential.SessionInput) (*model.Session, error)
	Update(ctx context.Context, id string, in credential.SessionInput) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionHandler はセッションのHTTPハンドラー。セッションIDはUUID文字列。
type SessionHandler struct {
	service SessionServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

type sessionRequest struct {
	Token      model.OptionalString `json:"token" validate:"omitempty,max=255"`
	Expiration model.OptionalString `json:"expiration"`
	FACode     model.OptionalString `json:"FACode" validate:"omitempty,max=10"`
	State      model.OptionalString `json:"state"`
}

func (req sessionRequest) toInput() credential.SessionInput {
	return credential.SessionInput{
		Token:      req.Token,
		Expiration: req.Expiration,
		FACode:     req.FACode,
		State:      req.State,
	}
}

// RegisterRoutes は/api/sessions配下のルートを登録する。
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/user/{user_id:"+idPattern+"}", h.ListByUser)
	r.Post("/user/{user_id:"+idPattern+"}", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List は全セッションを返す。
// GET /api/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Get は指定IDのセッションを返す。
// GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListByUser はユーザーのセッション一覧を返す。
// GET /api/sessions/user/{user_id}
func (h *SessionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	sessions, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Create はユーザーのセッションを作成する。トークンと有効期限は省略時に自動設定される。
// POST /api/sessions/user/{user_id}
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	var req sessionRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	s, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// Update はセッションを更新する。
// PUT /api/sessions/{id}
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req sessionRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	s, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Delete はセッションを削除する。
// DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Session")
}
