package model

import (
	"time"

	"github.com/hitoshi/mssecurity/internal/temporal"
)

// Password はユーザーのパスワード履歴の1件を表す。
// EndAtがnilのレコードが現在有効なパスワード。
type Password struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Content   string     `json:"-"` // bcryptハッシュ。レスポンスには含めない
	StartAt   Timestamp  `json:"startAt"`
	EndAt     *Timestamp `json:"endAt"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ValidityWindow はtemporal.Windowedを実装する。
func (p *Password) ValidityWindow() temporal.Window {
	return windowOf(p.StartAt, p.EndAt)
}

// セッション状態
const (
	SessionStateActive  = "active"
	SessionStateExpired = "expired"
	SessionStateRevoked = "revoked"
)

// Session はユーザーのセッション記録。
type Session struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	Token      string     `json:"token"`
	Expiration *Timestamp `json:"expiration"`
	FACode     *string    `json:"FACode"`
	State      string     `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SecurityQuestion は秘密の質問。
type SecurityQuestion struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Answer は秘密の質問に対するユーザーの回答。(user, question) の組は一意。
type Answer struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	SecurityQuestionID int64     `json:"security_question_id"`
	Content            string    `json:"content"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func windowOf(start Timestamp, end *Timestamp) temporal.Window {
	w := temporal.Window{StartAt: start.Time}
	if end != nil {
		e := end.Time
		w.EndAt = &e
	}
	return w
}
