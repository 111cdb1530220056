package credential

import (
	"context"
	"time"

	"github.com/hitoshi/mssecurity/internal/model"
)

// --- モック ---

type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.User{ID: id, Name: "Ana", Email: "ana@example.com"}, nil
}

// missingUsers は常にユーザー未検出を返す。
var missingUsers = &mockUserFinder{
	findByIDFn: func(ctx context.Context, id int64) (*model.User, error) { return nil, nil },
}

type mockPasswordRepo struct {
	listFn              func(ctx context.Context) ([]*model.Password, error)
	findByIDFn          func(ctx context.Context, id int64) (*model.Password, error)
	listByUserIDFn      func(ctx context.Context, userID int64) ([]*model.Password, error)
	createSupersedingFn func(ctx context.Context, p *model.Password, closeAt time.Time) (int64, error)
	updateFn            func(ctx context.Context, p *model.Password) error
	deleteByIDFn        func(ctx context.Context, id int64) error
}

func (m *mockPasswordRepo) List(ctx context.Context) ([]*model.Password, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockPasswordRepo) FindByID(ctx context.Context, id int64) (*model.Password, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockPasswordRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Password, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockPasswordRepo) CreateSuperseding(ctx context.Context, p *model.Password, closeAt time.Time) (int64, error) {
	if m.createSupersedingFn != nil {
		return m.createSupersedingFn(ctx, p, closeAt)
	}
	return 0, nil
}
func (m *mockPasswordRepo) Update(ctx context.Context, p *model.Password) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}
func (m *mockPasswordRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Session, error)
	createFn     func(ctx context.Context, s *model.Session) error
	updateFn     func(ctx context.Context, s *model.Session) error
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) List(ctx context.Context) ([]*model.Session, error) { return nil, nil }
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSessionRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) Create(ctx context.Context, s *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}
func (m *mockSessionRepo) Update(ctx context.Context, s *model.Session) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, s)
	}
	return nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}
func (m *mockSessionRepo) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type mockQuestionRepo struct {
	findByIDFn          func(ctx context.Context, id int64) (*model.SecurityQuestion, error)
	createFn            func(ctx context.Context, q *model.SecurityQuestion) error
	updateFn            func(ctx context.Context, q *model.SecurityQuestion) error
	deleteWithAnswersFn func(ctx context.Context, id int64) error
}

func (m *mockQuestionRepo) List(ctx context.Context) ([]*model.SecurityQuestion, error) {
	return nil, nil
}
func (m *mockQuestionRepo) FindByID(ctx context.Context, id int64) (*model.SecurityQuestion, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockQuestionRepo) Create(ctx context.Context, q *model.SecurityQuestion) error {
	if m.createFn != nil {
		return m.createFn(ctx, q)
	}
	return nil
}
func (m *mockQuestionRepo) Update(ctx context.Context, q *model.SecurityQuestion) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, q)
	}
	return nil
}
func (m *mockQuestionRepo) DeleteWithAnswers(ctx context.Context, id int64) error {
	if m.deleteWithAnswersFn != nil {
		return m.deleteWithAnswersFn(ctx, id)
	}
	return nil
}

type mockAnswerRepo struct {
	findByIDFn              func(ctx context.Context, id int64) (*model.Answer, error)
	findByUserAndQuestionFn func(ctx context.Context, userID, questionID int64) (*model.Answer, error)
	createFn                func(ctx context.Context, a *model.Answer) error
	updateFn                func(ctx context.Context, a *model.Answer) error
	deleteByIDFn            func(ctx context.Context, id int64) error
}

func (m *mockAnswerRepo) List(ctx context.Context) ([]*model.Answer, error) { return nil, nil }
func (m *mockAnswerRepo) FindByID(ctx context.Context, id int64) (*model.Answer, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockAnswerRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Answer, error) {
	return nil, nil
}
func (m *mockAnswerRepo) ListByQuestionID(ctx context.Context, questionID int64) ([]*model.Answer, error) {
	return nil, nil
}
func (m *mockAnswerRepo) FindByUserAndQuestion(ctx context.Context, userID, questionID int64) (*model.Answer, error) {
	if m.findByUserAndQuestionFn != nil {
		return m.findByUserAndQuestionFn(ctx, userID, questionID)
	}
	return nil, nil
}
func (m *mockAnswerRepo) Create(ctx context.Context, a *model.Answer) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}
func (m *mockAnswerRepo) Update(ctx context.Context, a *model.Answer) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, a)
	}
	return nil
}
func (m *mockAnswerRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

// fakeHasher はハッシュ化の代わりに接頭辞を付ける。
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Compare(hash, plain string) bool  { return hash == "hashed:"+plain }

type countingRecorder struct {
	rotations int
	closed    int64
}

func (r *countingRecorder) RecordPasswordRotation(closed int64) {
	r.rotations++
	r.closed += closed
}

// passthroughSanitizer は入力をそのまま返す。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Clean(s string) string { return s }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func apiCategory(err error) string {
	if apiErr, ok := err.(*model.APIError); ok {
		return apiErr.Category
	}
	return ""
}
