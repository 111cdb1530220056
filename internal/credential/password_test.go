package credential

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/temporal"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ts(t *testing.T, s string) model.Timestamp {
	t.Helper()
	v, err := model.ParseTimestamp("test", s)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q): %v", s, err)
	}
	return v
}

func tsPtr(t *testing.T, s string) *model.Timestamp {
	v := ts(t, s)
	return &v
}

// memPasswordRepo はCreateSupersedingの意味論を持つインメモリ実装。
type memPasswordRepo struct {
	mockPasswordRepo
	mu     sync.Mutex
	nextID int64
	rows   []*model.Password
}

func newMemPasswordRepo() *memPasswordRepo {
	r := &memPasswordRepo{}
	r.listByUserIDFn = func(ctx context.Context, userID int64) ([]*model.Password, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		var out []*model.Password
		for _, p := range r.rows {
			if p.UserID == userID {
				out = append(out, p)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt.Time) })
		return out, nil
	}
	r.createSupersedingFn = func(ctx context.Context, p *model.Password, closeAt time.Time) (int64, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		var closed int64
		for _, existing := range r.rows {
			if existing.UserID == p.UserID && existing.EndAt == nil {
				end := model.NewTimestamp(closeAt)
				existing.EndAt = &end
				closed++
			}
		}
		r.nextID++
		p.ID = r.nextID
		r.rows = append(r.rows, p)
		return closed, nil
	}
	return r
}

func (r *memPasswordRepo) openCount(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.rows {
		if p.UserID == userID && p.EndAt == nil {
			n++
		}
	}
	return n
}

// TestPasswordService_Create_SupersedesOpenPassword は既存の無期限パスワードが作成時刻で閉じられることを検証する。
func TestPasswordService_Create_SupersedesOpenPassword(t *testing.T) {
	repo := newMemPasswordRepo()
	p1 := &model.Password{ID: 1, UserID: 5, Content: "hashed:old", StartAt: ts(t, "2024-01-01 00:00:00")}
	repo.rows = []*model.Password{p1}
	repo.nextID = 1

	rec := &countingRecorder{}
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, rec).WithClock(fixedClock(now))

	p2, err := svc.Create(context.Background(), 5, PasswordInput{
		Content: model.SomeString("x"),
		StartAt: model.SomeString("2024-02-01 00:00:00"),
		EndAt:   model.SomeString("2024-03-01 00:00:00"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if p1.EndAt == nil || !p1.EndAt.Equal(now) {
		t.Errorf("P1.endAt = %v, want %v", p1.EndAt, now)
	}
	if !p2.StartAt.Equal(ts(t, "2024-02-01 00:00:00").Time) {
		t.Errorf("P2.startAt = %v", p2.StartAt)
	}
	if p2.EndAt == nil || !p2.EndAt.Equal(ts(t, "2024-03-01 00:00:00").Time) {
		t.Errorf("P2.endAt = %v", p2.EndAt)
	}
	if p2.Content != "hashed:x" {
		t.Errorf("content must be hashed, got %q", p2.Content)
	}
	if len(repo.rows) != 2 {
		t.Errorf("record count = %d, want 2", len(repo.rows))
	}
	if repo.openCount(5) != 0 {
		t.Errorf("open records = %d, want 0", repo.openCount(5))
	}
	if rec.rotations != 1 || rec.closed != 1 {
		t.Errorf("recorder = %+v, want 1 rotation closing 1 record", rec)
	}
}

// TestPasswordService_Create_SequentialKeepsOneOpen は連続作成後も無期限レコードが最新の1件のみであることを検証する。
func TestPasswordService_Create_SequentialKeepsOneOpen(t *testing.T) {
	repo := newMemPasswordRepo()
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil).WithClock(fixedClock(now))

	var last *model.Password
	for i := 0; i < 5; i++ {
		p, err := svc.Create(context.Background(), 7, PasswordInput{
			Content: model.SomeString(fmt.Sprintf("secret-%d", i)),
			StartAt: model.SomeString(fmt.Sprintf("2024-0%d-01 00:00:00", i+1)),
			EndAt:   model.NullString(),
		})
		if err != nil {
			t.Fatalf("Create #%d returned error: %v", i, err)
		}
		last = p
	}

	if n := repo.openCount(7); n != 1 {
		t.Fatalf("open records = %d, want 1", n)
	}
	if last.EndAt != nil {
		t.Error("most recent password must be the open one")
	}
}

// TestPasswordService_Create_RequiredKeys は必須キー欠落時のエラーメッセージを検証する。
func TestPasswordService_Create_RequiredKeys(t *testing.T) {
	tests := []struct {
		name    string
		input   PasswordInput
		wantMsg string
	}{
		{
			name:    "content欠落",
			input:   PasswordInput{StartAt: model.SomeString("2024-01-01 00:00:00"), EndAt: model.NullString()},
			wantMsg: "Password content is required",
		},
		{
			name:    "startAt欠落",
			input:   PasswordInput{Content: model.SomeString("x"), EndAt: model.NullString()},
			wantMsg: "startAt content is required",
		},
		{
			name:    "endAt欠落",
			input:   PasswordInput{Content: model.SomeString("x"), StartAt: model.SomeString("2024-01-01 00:00:00")},
			wantMsg: "endAt content is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockPasswordRepo{
				createSupersedingFn: func(ctx context.Context, p *model.Password, closeAt time.Time) (int64, error) {
					t.Fatal("CreateSuperseding must not be called")
					return 0, nil
				},
			}
			svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil)

			_, err := svc.Create(context.Background(), 1, tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Category != model.CategoryValidation || apiErr.Message != tt.wantMsg {
				t.Errorf("error = %+v, want validation %q", apiErr, tt.wantMsg)
			}
		})
	}
}

// TestPasswordService_Create_MalformedTimestamp は形式不正の日時がValidationErrorになることを検証する。
func TestPasswordService_Create_MalformedTimestamp(t *testing.T) {
	svc := NewPasswordService(&mockPasswordRepo{}, &mockUserFinder{}, fakeHasher{}, nil)

	_, err := svc.Create(context.Background(), 1, PasswordInput{
		Content: model.SomeString("x"),
		StartAt: model.SomeString("2024-02-01T00:00:00Z"),
		EndAt:   model.NullString(),
	})
	if apiCategory(err) != model.CategoryValidation {
		t.Errorf("error = %v, want validation error", err)
	}
}

// TestPasswordService_Create_AcceptsAnyWellFormedWindow は開始・終了日時の前後関係を問わず登録できることを検証する。
func TestPasswordService_Create_AcceptsAnyWellFormedWindow(t *testing.T) {
	tests := []struct {
		name    string
		startAt string
		endAt   string
	}{
		{"終了が開始より前", "2024-03-01 00:00:00", "2024-02-01 00:00:00"},
		{"長さ0の期間", "2024-03-01 00:00:00", "2024-03-01 00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemPasswordRepo()
			svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil).WithClock(fixedClock(now))

			p, err := svc.Create(context.Background(), 1, PasswordInput{
				Content: model.SomeString("x"),
				StartAt: model.SomeString(tt.startAt),
				EndAt:   model.SomeString(tt.endAt),
			})
			if err != nil {
				t.Fatalf("Create returned error: %v", err)
			}
			if got := p.StartAt.Format(temporal.TimestampLayout); got != tt.startAt {
				t.Errorf("startAt = %s, want %s", got, tt.startAt)
			}
			if got := p.EndAt.Format(temporal.TimestampLayout); got != tt.endAt {
				t.Errorf("endAt = %s, want %s", got, tt.endAt)
			}
			if len(repo.rows) != 1 {
				t.Errorf("rows = %d, want 1", len(repo.rows))
			}
		})
	}
}

// TestPasswordService_Update_CorrectsSupersededFutureRecord は開始前に閉じられたレコードも内容を修正できることを検証する。
func TestPasswordService_Update_CorrectsSupersededFutureRecord(t *testing.T) {
	repo := newMemPasswordRepo()
	future := &model.Password{ID: 1, UserID: 5, Content: "hashed:old", StartAt: ts(t, "2025-01-01 00:00:00")}
	repo.rows = []*model.Password{future}
	repo.nextID = 1
	repo.findByIDFn = func(ctx context.Context, id int64) (*model.Password, error) {
		for _, p := range repo.rows {
			if p.ID == id {
				return p, nil
			}
		}
		return nil, nil
	}
	var updated *model.Password
	repo.updateFn = func(ctx context.Context, p *model.Password) error {
		updated = p
		return nil
	}

	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil).WithClock(fixedClock(now))

	if _, err := svc.Create(context.Background(), 5, PasswordInput{
		Content: model.SomeString("new"),
		StartAt: model.SomeString("2024-06-01 00:00:00"),
		EndAt:   model.NullString(),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if future.EndAt == nil || !future.EndAt.Before(future.StartAt.Time) {
		t.Fatalf("future record should be closed before its start, got endAt=%v", future.EndAt)
	}

	p, err := svc.Update(context.Background(), 1, PasswordInput{Content: model.SomeString("fixed")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated == nil || p.Content != "hashed:fixed" {
		t.Errorf("content = %q, want hashed:fixed", p.Content)
	}
	if got := p.StartAt.Format(temporal.TimestampLayout); got != "2025-01-01 00:00:00" {
		t.Errorf("startAt = %s, want unchanged", got)
	}
}

// TestPasswordService_Create_UserNotFound はユーザー未検出時に404相当のエラーを返すことを検証する。
func TestPasswordService_Create_UserNotFound(t *testing.T) {
	svc := NewPasswordService(&mockPasswordRepo{}, missingUsers, fakeHasher{}, nil)

	_, err := svc.Create(context.Background(), 99, PasswordInput{})
	if apiCategory(err) != model.CategoryNotFound {
		t.Errorf("error = %v, want not found", err)
	}
}

// TestPasswordService_Create_UserDeletedConcurrently はロック取得時にユーザーが消えていた場合を検証する。
func TestPasswordService_Create_UserDeletedConcurrently(t *testing.T) {
	repo := &mockPasswordRepo{
		createSupersedingFn: func(ctx context.Context, p *model.Password, closeAt time.Time) (int64, error) {
			return 0, fmt.Errorf("failed to create password: %w", repository.ErrNotFound)
		},
	}
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil)

	_, err := svc.Create(context.Background(), 1, PasswordInput{
		Content: model.SomeString("x"),
		StartAt: model.SomeString("2024-02-01 00:00:00"),
		EndAt:   model.NullString(),
	})
	if apiCategory(err) != model.CategoryNotFound {
		t.Errorf("error = %v, want not found", err)
	}
}

// TestPasswordService_Create_StoreFailure はストアのエラーがそのまま返ることを検証する。
func TestPasswordService_Create_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	repo := &mockPasswordRepo{
		createSupersedingFn: func(ctx context.Context, p *model.Password, closeAt time.Time) (int64, error) {
			return 0, storeErr
		},
	}
	rec := &countingRecorder{}
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, rec)

	_, err := svc.Create(context.Background(), 1, PasswordInput{
		Content: model.SomeString("x"),
		StartAt: model.SomeString("2024-02-01 00:00:00"),
		EndAt:   model.NullString(),
	})
	if !errors.Is(err, storeErr) {
		t.Errorf("error = %v, want %v", err, storeErr)
	}
	if rec.rotations != 0 {
		t.Error("rotation must not be recorded on failure")
	}
}

// TestPasswordService_GetCurrent は現在有効なパスワードの判定を検証する。
func TestPasswordService_GetCurrent(t *testing.T) {
	history := []*model.Password{
		{ID: 3, UserID: 1, StartAt: ts(t, "2024-07-01 00:00:00")},
		{ID: 2, UserID: 1, StartAt: ts(t, "2024-03-01 00:00:00")},
		{ID: 1, UserID: 1, StartAt: ts(t, "2024-01-01 00:00:00"), EndAt: tsPtr(t, "2024-03-01 00:00:00")},
	}
	repo := &mockPasswordRepo{
		listByUserIDFn: func(ctx context.Context, userID int64) ([]*model.Password, error) {
			return history, nil
		},
	}
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil).WithClock(fixedClock(now))

	got, err := svc.GetCurrent(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCurrent returned error: %v", err)
	}
	if got.ID != 2 {
		t.Errorf("current password ID = %d, want 2", got.ID)
	}
}

// TestPasswordService_GetCurrent_NotFound は有効なパスワードがない場合のエラーを検証する。
func TestPasswordService_GetCurrent_NotFound(t *testing.T) {
	repo := &mockPasswordRepo{
		listByUserIDFn: func(ctx context.Context, userID int64) ([]*model.Password, error) {
			return []*model.Password{
				{ID: 1, StartAt: ts(t, "2024-01-01 00:00:00"), EndAt: tsPtr(t, "2024-02-01 00:00:00")},
			}, nil
		},
	}
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil).WithClock(fixedClock(now))

	_, err := svc.GetCurrent(context.Background(), 1)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "No active password found for this user" {
		t.Errorf("error = %v, want no active password", err)
	}
}

// TestPasswordService_Update_PartialFields は指定されたフィールドのみ更新されることを検証する。
func TestPasswordService_Update_PartialFields(t *testing.T) {
	stored := &model.Password{
		ID: 4, UserID: 1, Content: "hashed:old",
		StartAt: ts(t, "2024-01-01 00:00:00"), EndAt: tsPtr(t, "2024-02-01 00:00:00"),
	}
	var saved *model.Password
	repo := &mockPasswordRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Password, error) { return stored, nil },
		updateFn: func(ctx context.Context, p *model.Password) error {
			saved = p
			return nil
		},
	}
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil)

	_, err := svc.Update(context.Background(), 4, PasswordInput{EndAt: model.NullString()})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if saved.EndAt != nil {
		t.Error("endAt null must reopen the password")
	}
	if saved.Content != "hashed:old" {
		t.Errorf("content changed unexpectedly: %q", saved.Content)
	}
}

// TestPasswordService_Update_ConflictingOpenPassword は2件目の無期限パスワードが拒否されることを検証する。
func TestPasswordService_Update_ConflictingOpenPassword(t *testing.T) {
	repo := &mockPasswordRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Password, error) {
			return &model.Password{ID: id, StartAt: ts(t, "2024-01-01 00:00:00"), EndAt: tsPtr(t, "2024-02-01 00:00:00")}, nil
		},
		updateFn: func(ctx context.Context, p *model.Password) error {
			return fmt.Errorf("failed to update password: %w", repository.ErrDuplicate)
		},
	}
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil)

	_, err := svc.Update(context.Background(), 1, PasswordInput{EndAt: model.NullString()})
	if apiCategory(err) != model.CategoryConflict {
		t.Errorf("error = %v, want conflict", err)
	}
}

// TestPasswordService_Delete_NotFound は存在しないレコードの削除を検証する。
func TestPasswordService_Delete_NotFound(t *testing.T) {
	repo := &mockPasswordRepo{
		deleteByIDFn: func(ctx context.Context, id int64) error {
			return fmt.Errorf("failed to delete password: %w", repository.ErrNotFound)
		},
	}
	svc := NewPasswordService(repo, &mockUserFinder{}, fakeHasher{}, nil)

	err := svc.Delete(context.Background(), 1)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Password record not found" {
		t.Errorf("error = %v, want Password record not found", err)
	}
}
