package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresAnswerRepo はPostgreSQLを使用した回答リポジトリ。
type PostgresAnswerRepo struct {
	db *sql.DB
}

// NewPostgresAnswerRepo はPostgresAnswerRepoを生成する。
func NewPostgresAnswerRepo(db *sql.DB) *PostgresAnswerRepo {
	return &PostgresAnswerRepo{db: db}
}

const answerColumns = `id, user_id, security_question_id, content, created_at, updated_at`

func scanAnswer(s rowScanner) (*model.Answer, error) {
	a := &model.Answer{}
	if err := s.Scan(&a.ID, &a.UserID, &a.SecurityQuestionID, &a.Content, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// List は全回答を返す。
func (r *PostgresAnswerRepo) List(ctx context.Context) ([]*model.Answer, error) {
	return queryAll(ctx, r.db, "answers", scanAnswer,
		`SELECT `+answerColumns+` FROM answers ORDER BY id`)
}

// FindByID は指定IDの回答を取得する。見つからない場合はnilを返す。
func (r *PostgresAnswerRepo) FindByID(ctx context.Context, id int64) (*model.Answer, error) {
	return queryOne(ctx, r.db, "answer", scanAnswer,
		`SELECT `+answerColumns+` FROM answers WHERE id = $1`, id)
}

// ListByUserID はユーザーの回答一覧を返す。
func (r *PostgresAnswerRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Answer, error) {
	return queryAll(ctx, r.db, "answers", scanAnswer,
		`SELECT `+answerColumns+` FROM answers WHERE user_id = $1 ORDER BY id`, userID)
}

// ListByQuestionID は質問に対する回答一覧を返す。
func (r *PostgresAnswerRepo) ListByQuestionID(ctx context.Context, questionID int64) ([]*model.Answer, error) {
	return queryAll(ctx, r.db, "answers", scanAnswer,
		`SELECT `+answerColumns+` FROM answers WHERE security_question_id = $1 ORDER BY id`, questionID)
}

// FindByUserAndQuestion はユーザーと質問の組で回答を検索する。見つからない場合はnilを返す。
func (r *PostgresAnswerRepo) FindByUserAndQuestion(ctx context.Context, userID, questionID int64) (*model.Answer, error) {
	return queryOne(ctx, r.db, "answer", scanAnswer,
		`SELECT `+answerColumns+` FROM answers WHERE user_id = $1 AND security_question_id = $2`,
		userID, questionID)
}

// Create は回答を作成する。
func (r *PostgresAnswerRepo) Create(ctx context.Context, a *model.Answer) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO answers (user_id, security_question_id, content) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.SecurityQuestionID, a.Content,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return wrapError("insert answer", err)
	}
	return nil
}

// Update は回答内容を更新する。
func (r *PostgresAnswerRepo) Update(ctx context.Context, a *model.Answer) error {
	return updateReturning(ctx, r.db, "update answer", &a.UpdatedAt,
		`UPDATE answers SET content = $2, updated_at = now() WHERE id = $1 RETURNING updated_at`,
		a.ID, a.Content)
}

// DeleteByID は指定IDの回答を削除する。
func (r *PostgresAnswerRepo) DeleteByID(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, "delete answer", `DELETE FROM answers WHERE id = $1`, id)
}

var _ AnswerRepository = (*PostgresAnswerRepo)(nil)
