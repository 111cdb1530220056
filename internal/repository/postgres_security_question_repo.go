package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mssecurity/internal/model"
)

// PostgresSecurityQuestionRepo はPostgreSQLを使用した秘密の質問リポジトリ。
type PostgresSecurityQuestionRepo struct {
	db *sql.DB
}

// NewPostgresSecurityQuestionRepo はPostgresSecurityQuestionRepoを生成する。
func NewPostgresSecurityQuestionRepo(db *sql.DB) *PostgresSecurityQuestionRepo {
	return &PostgresSecurityQuestionRepo{db: db}
}

const questionColumns = `id, name, description, created_at, updated_at`

func scanQuestion(s rowScanner) (*model.SecurityQuestion, error) {
	q := &model.SecurityQuestion{}
	if err := s.Scan(&q.ID, &q.Name, &q.Description, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return q, nil
}

// List は全質問を返す。
func (r *PostgresSecurityQuestionRepo) List(ctx context.Context) ([]*model.SecurityQuestion, error) {
	return queryAll(ctx, r.db, "security questions", scanQuestion,
		`SELECT `+questionColumns+` FROM security_questions ORDER BY id`)
}

// FindByID は指定IDの質問を取得する。見つからない場合はnilを返す。
func (r *PostgresSecurityQuestionRepo) FindByID(ctx context.Context, id int64) (*model.SecurityQuestion, error) {
	return queryOne(ctx, r.db, "security question", scanQuestion,
		`SELECT `+questionColumns+` FROM security_questions WHERE id = $1`, id)
}

// Create は質問を作成する。
func (r *PostgresSecurityQuestionRepo) Create(ctx context.Context, q *model.SecurityQuestion) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO security_questions (name, description) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		q.Name, q.Description,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return wrapError("insert security question", err)
	}
	return nil
}

// Update は質問を更新する。
func (r *PostgresSecurityQuestionRepo) Update(ctx context.Context, q *model.SecurityQuestion) error {
	return updateReturning(ctx, r.db, "update security question", &q.UpdatedAt,
		`UPDATE security_questions SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		q.ID, q.Name, q.Description)
}

// DeleteWithAnswers は質問とその回答を同一トランザクションで削除する。
func (r *PostgresSecurityQuestionRepo) DeleteWithAnswers(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE security_question_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete answers: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM security_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete security question: %w", err)
	}
	n, err := result.RowsAffected()
	if err := checkAffected("delete security question", n, err); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ SecurityQuestionRepository = (*PostgresSecurityQuestionRepo)(nil)
