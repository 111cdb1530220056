package model

import (
	"time"

	"github.com/hitoshi/mssecurity/internal/temporal"
)

// Role はロール。名前は一意。
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission は (url, method, entity) の組で表される権限。組は一意。
// Entityは画面上のグルーピングに使う自由文字列。
type Permission struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Entity    string    `json:"entity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRole はユーザーへのロール割り当てと有効期間。
type UserRole struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	RoleID    int64      `json:"role_id"`
	StartAt   Timestamp  `json:"startAt"`
	EndAt     *Timestamp `json:"endAt"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ValidityWindow はtemporal.Windowedを実装する。
func (ur *UserRole) ValidityWindow() temporal.Window {
	return windowOf(ur.StartAt, ur.EndAt)
}

// RolePermission はロールと権限の関連。
type RolePermission struct {
	ID           string    `json:"id"`
	RoleID       int64     `json:"role_id"`
	PermissionID int64     `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PermissionGrant はロールが保持しているかどうかの注釈付き権限。
type PermissionGrant struct {
	Permission
	HasPermission bool `json:"has_permission"`
}

// PermissionGroup はentityごとにまとめた権限一覧。
type PermissionGroup struct {
	Entity      string            `json:"entity"`
	Permissions []PermissionGrant `json:"permissions"`
}
