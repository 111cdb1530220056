package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/temporal"
)

// DefaultSessionTTL は有効期限が指定されなかった場合のセッション有効期間。
const DefaultSessionTTL = 24 * time.Hour

// SessionInput はセッション作成・更新の入力。
type SessionInput struct {
	Token      model.OptionalString
	Expiration model.OptionalString
	FACode     model.OptionalString
	State      model.OptionalString
}

// SessionService はセッション記録のサービス層。
// トークンの検証や更新は行わず、値の保存のみを扱う。
type SessionService struct {
	sessions repository.SessionRepository
	users    UserFinder
	ttl      time.Duration
	now      temporal.Clock
}

// NewSessionService はSessionServiceを生成する。ttlが0以下の場合はDefaultSessionTTLを使用する。
func NewSessionService(sessions repository.SessionRepository, users UserFinder, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      temporal.SystemClock,
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func (s *SessionService) WithClock(clock temporal.Clock) *SessionService {
	s.now = clock
	return s
}

func (s *SessionService) List(ctx context.Context) ([]*model.Session, error) {
	return s.sessions.List(ctx)
}

func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, model.NewNotFoundError("Session not found")
	}
	return session, nil
}

func (s *SessionService) ListByUser(ctx context.Context, userID int64) ([]*model.Session, error) {
	return s.sessions.ListByUserID(ctx, userID)
}

// Create はユーザーのセッションを記録する。
// トークン未指定時はUUID、有効期限未指定時は現在時刻+TTL、状態未指定時はactiveを設定する。
func (s *SessionService) Create(ctx context.Context, userID int64, in SessionInput) (*model.Session, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	session := &model.Session{
		ID:     uuid.NewString(),
		UserID: userID,
		Token:  in.Token.Value,
		State:  model.SessionStateActive,
	}
	if session.Token == "" {
		session.Token = uuid.NewString()
	}

	if in.Expiration.Valid && in.Expiration.Value != "" {
		exp, err := model.ParseTimestamp("expiration", in.Expiration.Value)
		if err != nil {
			return nil, err
		}
		session.Expiration = &exp
	} else {
		exp := model.NewTimestamp(s.now().Add(s.ttl))
		session.Expiration = &exp
	}

	if in.FACode.Valid {
		code := in.FACode.Value
		session.FACode = &code
	}
	if in.State.Valid && in.State.Value != "" {
		if err := validateSessionState(in.State.Value); err != nil {
			return nil, err
		}
		session.State = in.State.Value
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Update はセッションの指定されたフィールドのみを更新する。
func (s *SessionService) Update(ctx context.Context, id string, in SessionInput) (*model.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, model.NewNotFoundError("Session not found")
	}

	if in.Token.Present {
		if !in.Token.Valid || in.Token.Value == "" {
			return nil, model.NewValidationError("Session token must not be empty")
		}
		session.Token = in.Token.Value
	}
	if in.Expiration.Present {
		exp, err := model.ParseOptionalTimestamp("expiration", in.Expiration)
		if err != nil {
			return nil, err
		}
		session.Expiration = exp
	}
	if in.FACode.Present {
		if in.FACode.Valid {
			code := in.FACode.Value
			session.FACode = &code
		} else {
			session.FACode = nil
		}
	}
	if in.State.Present {
		if err := validateSessionState(in.State.Value); err != nil {
			return nil, err
		}
		session.State = in.State.Value
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Session not found")
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	err := s.sessions.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("Session not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func validateSessionState(state string) error {
	switch state {
	case model.SessionStateActive, model.SessionStateExpired, model.SessionStateRevoked:
		return nil
	}
	return model.NewValidationError("Session state must be one of active, expired, revoked")
}
