package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mssecurity/internal/credential"
	"github.com/hitoshi/mssecurity/internal/model"
)

// AnswerServiceInterface は回答ハンドラーが必要とするサービスインターフェース。
type AnswerServiceInterface interface {
	List(ctx context.Context) ([]*model.Answer, error)
	Get(ctx context.Context, id int64) (*model.Answer, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Answer, error)
	ListByQuestion(ctx context.Context, questionID int64) ([]*model.Answer, error)
	GetByUserAndQuestion(ctx context.Context, userID, questionID int64) (*model.Answer, error)
	Create(ctx context.Context, userID, questionID int64, in credential.AnswerInput) (*model.Answer, error)
	Update(ctx context.Context, id int64, in credential.AnswerInput) (*model.Answer, error)
	Delete(ctx context.Context, id int64) error
}

// AnswerHandler は秘密の質問への回答のHTTPハンドラー。
type AnswerHandler struct {
	service AnswerServiceInterface
}

// NewAnswerHandler はAnswerHandlerを生成する。
func NewAnswerHandler(service AnswerServiceInterface) *AnswerHandler {
	return &AnswerHandler{service: service}
}

type answerRequest struct {
	Content model.OptionalString `json:"content" validate:"omitempty,max=255"`
}

// RegisterRoutes は/api/answers配下のルートを登録する。
func (h *AnswerHandler) RegisterRoutes(r chi.Router) {
	pair := "/user/{user_id:" + idPattern + "}/question/{question_id:" + idPattern + "}"

	r.Get("/", h.List)
	r.Get("/{id:"+idPattern+"}", h.Get)
	r.Get("/user/{user_id:"+idPattern+"}", h.ListByUser)
	r.Get("/question/{question_id:"+idPattern+"}", h.ListByQuestion)
	r.Get(pair, h.GetByUserAndQuestion)
	r.Post(pair, h.Create)
	r.Put("/{id:"+idPattern+"}", h.Update)
	r.Delete("/{id:"+idPattern+"}", h.Delete)
}

// List は全回答を返す。
// GET /api/answers
func (h *AnswerHandler) List(w http.ResponseWriter, r *http.Request) {
	answers, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// Get は指定IDの回答を返す。
// GET /api/answers/{id}
func (h *AnswerHandler) Get(w http.ResponseWriter, r *http.Request) {
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

// ListByUser はユーザーの回答一覧を返す。
// GET /api/answers/user/{user_id}
func (h *AnswerHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return
	}
	answers, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// ListByQuestion は質問への回答一覧を返す。
// GET /api/answers/question/{question_id}
func (h *AnswerHandler) ListByQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := int64Param(w, r, "question_id")
	if !ok {
		return
	}
	answers, err := h.service.ListByQuestion(r.Context(), questionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// GetByUserAndQuestion はユーザーと質問の組に対する回答を返す。
// GET /api/answers/user/{user_id}/question/{question_id}
func (h *AnswerHandler) GetByUserAndQuestion(w http.ResponseWriter, r *http.Request) {
	userID, questionID, ok := h.pairParams(w, r)
	if !ok {
		return
	}
	a, err := h.service.GetByUserAndQuestion(r.Context(), userID, questionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Create はユーザーと質問の組に回答を登録する。
// POST /api/answers/user/{user_id}/question/{question_id}
func (h *AnswerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, questionID, ok := h.pairParams(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	a, err := h.service.Create(r.Context(), userID, questionID, credential.AnswerInput{Content: req.Content})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// Update は回答内容を更新する。
// PUT /api/answers/{id}
func (h *AnswerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req answerRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	a, err := h.service.Update(r.Context(), id, credential.AnswerInput{Content: req.Content})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete は回答を削除する。
// DELETE /api/answers/{id}
func (h *AnswerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeDeleted(w, "Answer")
}

func (h *AnswerHandler) pairParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := int64Param(w, r, "user_id")
	if !ok {
		return 0, 0, false
	}
	questionID, ok := int64Param(w, r, "question_id")
	if !ok {
		return 0, 0, false
	}
	return userID, questionID, true
}
