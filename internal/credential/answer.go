package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
)

// QuestionFinder は秘密の質問の存在確認に使うインターフェース。
type QuestionFinder interface {
	FindByID(ctx context.Context, id int64) (*model.SecurityQuestion, error)
}

// AnswerInput は回答の作成・更新入力。
type AnswerInput struct {
	Content model.OptionalString
}

// AnswerService は秘密の質問への回答のサービス層。
type AnswerService struct {
	answers   repository.AnswerRepository
	users     UserFinder
	questions QuestionFinder
}

// NewAnswerService はAnswerServiceを生成する。
func NewAnswerService(answers repository.AnswerRepository, users UserFinder, questions QuestionFinder) *AnswerService {
	return &AnswerService{answers: answers, users: users, questions: questions}
}

func (s *AnswerService) List(ctx context.Context) ([]*model.Answer, error) {
	return s.answers.List(ctx)
}

func (s *AnswerService) Get(ctx context.Context, id int64) (*model.Answer, error) {
	a, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, model.NewNotFoundError("Answer not found")
	}
	return a, nil
}

func (s *AnswerService) ListByUser(ctx context.Context, userID int64) ([]*model.Answer, error) {
	return s.answers.ListByUserID(ctx, userID)
}

func (s *AnswerService) ListByQuestion(ctx context.Context, questionID int64) ([]*model.Answer, error) {
	return s.answers.ListByQuestionID(ctx, questionID)
}

// GetByUserAndQuestion はユーザーと質問の組に対する回答を返す。
func (s *AnswerService) GetByUserAndQuestion(ctx context.Context, userID, questionID int64) (*model.Answer, error) {
	a, err := s.answers.FindByUserAndQuestion(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, model.NewNotFoundError("Answer not found for this user and question")
	}
	return a, nil
}

// Create は回答を登録する。(user, question) の組につき1件のみ。
func (s *AnswerService) Create(ctx context.Context, userID, questionID int64, in AnswerInput) (*model.Answer, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	q, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, model.NewNotFoundError("Security question not found")
	}

	existing, err := s.answers.FindByUserAndQuestion(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errAnswerExists()
	}

	if !in.Content.Present || !in.Content.Valid {
		return nil, model.NewValidationError("Answer content is required")
	}

	a := &model.Answer{
		UserID:             userID,
		SecurityQuestionID: questionID,
		Content:            in.Content.Value,
	}
	if err := s.answers.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errAnswerExists()
		}
		return nil, err
	}
	return a, nil
}

// Update は回答内容を更新する。
func (s *AnswerService) Update(ctx context.Context, id int64, in AnswerInput) (*model.Answer, error) {
	a, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, model.NewNotFoundError("Answer not found")
	}

	if in.Content.Present {
		if !in.Content.Valid {
			return nil, model.NewValidationError("Answer content is required")
		}
		a.Content = in.Content.Value
	}

	if err := s.answers.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Answer not found")
		}
		return nil, err
	}
	return a, nil
}

func (s *AnswerService) Delete(ctx context.Context, id int64) error {
	err := s.answers.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("Answer not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	return nil
}

func errAnswerExists() *model.APIError {
	return model.NewConflictError("An answer already exists for this user and question")
}
