package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/security"
)

// QuestionInput は秘密の質問の作成・更新入力。
type QuestionInput struct {
	Name        model.OptionalString
	Description model.OptionalString
}

// SecurityQuestionService は秘密の質問のサービス層。
type SecurityQuestionService struct {
	questions repository.SecurityQuestionRepository
	sanitizer security.TextSanitizer
}

// NewSecurityQuestionService はSecurityQuestionServiceを生成する。
func NewSecurityQuestionService(questions repository.SecurityQuestionRepository, sanitizer security.TextSanitizer) *SecurityQuestionService {
	return &SecurityQuestionService{questions: questions, sanitizer: sanitizer}
}

func (s *SecurityQuestionService) List(ctx context.Context) ([]*model.SecurityQuestion, error) {
	return s.questions.List(ctx)
}

func (s *SecurityQuestionService) Get(ctx context.Context, id int64) (*model.SecurityQuestion, error) {
	q, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, model.NewNotFoundError("Security question not found")
	}
	return q, nil
}

// Create は秘密の質問を作成する。説明が未指定の場合は空文字列を保存する。
func (s *SecurityQuestionService) Create(ctx context.Context, in QuestionInput) (*model.SecurityQuestion, error) {
	if !in.Name.Present || !in.Name.Valid {
		return nil, model.NewValidationError("Security question name is required")
	}

	description := ""
	if in.Description.Valid {
		description = s.sanitizer.Clean(in.Description.Value)
	}
	q := &model.SecurityQuestion{
		Name:        s.sanitizer.Clean(in.Name.Value),
		Description: &description,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Update は指定されたフィールドのみを更新する。
func (s *SecurityQuestionService) Update(ctx context.Context, id int64, in QuestionInput) (*model.SecurityQuestion, error) {
	q, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, model.NewNotFoundError("Security question not found")
	}

	if in.Name.Present {
		if !in.Name.Valid {
			return nil, model.NewValidationError("Security question name is required")
		}
		q.Name = s.sanitizer.Clean(in.Name.Value)
	}
	if in.Description.Present {
		if in.Description.Valid {
			description := s.sanitizer.Clean(in.Description.Value)
			q.Description = &description
		} else {
			q.Description = nil
		}
	}

	if err := s.questions.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Security question not found")
		}
		return nil, err
	}
	return q, nil
}

// Delete は質問とその回答を削除する。
func (s *SecurityQuestionService) Delete(ctx context.Context, id int64) error {
	err := s.questions.DeleteWithAnswers(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("Security question not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete security question: %w", err)
	}
	return nil
}
