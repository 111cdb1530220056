package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/credential"
	"github.com/hitoshi/mssecurity/internal/model"
)

// SecurityQuestionServiceInterface は秘密の質問ハンドラーが必要とするサービスインターフェース。
type SecurityQuestionServiceInterface interface {
	List(ctx context.Context) ([]*model.SecurityQuestion, error)
	Get(ctx context.Context, id int64) (*model.SecurityQuestion, error)
	Create(ctx context.Context, in credential.QuestionInput) (*model.SecurityQuestion, error)
	Update(ctx context.Context, id int64, in credential.QuestionInput) (*model.SecurityQuestion, error)
	Delete(ctx context.Context, id int64) error
}

// SecurityQuestionHandler は秘密の質問のHTTPハンドラー。
type SecurityQuestionHandler struct {
	service SecurityQuestionServiceInterface
}

// NewSecurityQuestionHandler はSecurityQuestionHandlerを生成する。
func NewSecurityQuestionHandler(service SecurityQuestionServiceInterface) *SecurityQuestionHandler {
	return &SecurityQuestionHandler{service: service}
}

type questionRequest struct {
	Name        model.OptionalString `json:"name" validate:"omitempty,max=255"`
	Description model.OptionalString `json:"description"`
}

// RegisterRoutes は/api/security-questions配下のルートを登録する。
func (h *SecurityQuestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Put("/{id:"+idPattern+"}", h.Update)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
}

// List は全質問を返す。
// GET /api/security-questions
func (h *SecurityQuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// Get は指定IDの質問を返す。
// GET /api/security-questions/{id}
func (h *SecurityQuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Create は質問を作成する。
// POST /api/security-questions
func (h *SecurityQuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	q, err := h.service.Create(r.Context(), credential.QuestionInput{Name: req.Name, Description: req.Description})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// Update は質問を更新する。
// PUT /api/security-questions/{id}
func (h *SecurityQuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req questionRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	q, err := h.service.Update(r.Context(), id, credential.QuestionInput{Name: req.Name, Description: req.Description})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Delete は質問を削除する。
// DELETE /api/security-questions/{id}
func (h *SecurityQuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Security question")
}
