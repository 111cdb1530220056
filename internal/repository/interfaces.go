// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
//
// 検索系メソッドは対象が見つからない場合にnilを返す。
// 一意制約違反はErrDuplicateでラップして返す。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/mssecurity/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	List(ctx context.Context) ([]*model.User, error)
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error

	// DeleteCascade はユーザーと関連する全レコードを同一トランザクションで削除する。
	// 削除順序: answers → user_roles → devices → passwords → sessions →
	// digital_signatures → addresses → profiles → users
	// 戻り値は削除したプロフィール画像と署名画像の相対パス。
	DeleteCascade(ctx context.Context, id int64) (*model.UserArtifacts, error)
}

// ProfileRepository はプロフィールの永続化インターフェース。
type ProfileRepository interface {
	List(ctx context.Context) ([]*model.Profile, error)
	FindByID(ctx context.Context, id int64) (*model.Profile, error)
	FindByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	Update(ctx context.Context, profile *model.Profile) error
	DeleteByID(ctx context.Context, id int64) error
}

// AddressRepository は住所の永続化インターフェース。
type AddressRepository interface {
	List(ctx context.Context) ([]*model.Address, error)
	FindByID(ctx context.Context, id int64) (*model.Address, error)
	FindByUserID(ctx context.Context, userID int64) (*model.Address, error)
	Create(ctx context.Context, address *model.Address) error
	Update(ctx context.Context, address *model.Address) error
	DeleteByID(ctx context.Context, id int64) error
}

// DigitalSignatureRepository は電子署名の永続化インターフェース。
type DigitalSignatureRepository interface {
	List(ctx context.Context) ([]*model.DigitalSignature, error)
	FindByID(ctx context.Context, id int64) (*model.DigitalSignature, error)
	FindByUserID(ctx context.Context, userID int64) (*model.DigitalSignature, error)
	Create(ctx context.Context, signature *model.DigitalSignature) error
	Update(ctx context.Context, signature *model.DigitalSignature) error
	DeleteByID(ctx context.Context, id int64) error
}

// DeviceRepository は端末の永続化インターフェース。
type DeviceRepository interface {
	List(ctx context.Context) ([]*model.Device, error)
	FindByID(ctx context.Context, id int64) (*model.Device, error)
	ListByUserID(ctx context.Context, userID int64) ([]*model.Device, error)
	Create(ctx context.Context, device *model.Device) error
	Update(ctx context.Context, device *model.Device) error
	DeleteByID(ctx context.Context, id int64) error
}

// SessionRepository はセッションの永続化インターフェース。
type SessionRepository interface {
	List(ctx context.Context) ([]*model.Session, error)
	FindByID(ctx context.Context, id string) (*model.Session, error)
	ListByUserID(ctx context.Context, userID int64) ([]*model.Session, error)
	Create(ctx context.Context, session *model.Session) error
	Update(ctx context.Context, session *model.Session) error
	DeleteByID(ctx context.Context, id string) error

	// ExpireBefore は有効期限がnow以前のactiveセッションをexpiredに更新し、更新件数を返す。
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

// PasswordRepository はパスワード履歴の永続化インターフェース。
type PasswordRepository interface {
	List(ctx context.Context) ([]*model.Password, error)
	FindByID(ctx context.Context, id int64) (*model.Password, error)
	// ListByUserID はユーザーのパスワード履歴をstart_at降順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Password, error)

	// CreateSuperseding はユーザー行をロックし、無期限のパスワードのend_atをcloseAtで閉じてから
	// 新しいパスワードを挿入する。一連の処理は1トランザクションで実行される。
	// ユーザーが存在しない場合はErrNotFoundを返す。戻り値は閉じたレコード数。
	CreateSuperseding(ctx context.Context, password *model.Password, closeAt time.Time) (int64, error)

	Update(ctx context.Context, password *model.Password) error
	DeleteByID(ctx context.Context, id int64) error
}

// SecurityQuestionRepository は秘密の質問の永続化インターフェース。
type SecurityQuestionRepository interface {
	List(ctx context.Context) ([]*model.SecurityQuestion, error)
	FindByID(ctx context.Context, id int64) (*model.SecurityQuestion, error)
	Create(ctx context.Context, question *model.SecurityQuestion) error
	Update(ctx context.Context, question *model.SecurityQuestion) error
	// DeleteWithAnswers は質問とその回答を同一トランザクションで削除する。
	DeleteWithAnswers(ctx context.Context, id int64) error
}

// AnswerRepository は回答の永続化インターフェース。
type AnswerRepository interface {
	List(ctx context.Context) ([]*model.Answer, error)
	FindByID(ctx context.Context, id int64) (*model.Answer, error)
	ListByUserID(ctx context.Context, userID int64) ([]*model.Answer, error)
	ListByQuestionID(ctx context.Context, questionID int64) ([]*model.Answer, error)
	FindByUserAndQuestion(ctx context.Context, userID, questionID int64) (*model.Answer, error)
	Create(ctx context.Context, answer *model.Answer) error
	Update(ctx context.Context, answer *model.Answer) error
	DeleteByID(ctx context.Context, id int64) error
}

// RoleRepository はロールの永続化インターフェース。
type RoleRepository interface {
	List(ctx context.Context) ([]*model.Role, error)
	FindByID(ctx context.Context, id int64) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	// DeleteWithAssociations はロールと、それを参照するrole_permissions・user_rolesを同一トランザクションで削除する。
	DeleteWithAssociations(ctx context.Context, id int64) error
}

// PermissionRepository は権限の永続化インターフェース。
type PermissionRepository interface {
	// List は全権限をid昇順で返す。
	List(ctx context.Context) ([]*model.Permission, error)
	FindByID(ctx context.Context, id int64) (*model.Permission, error)
	// FindByTriple は (url, method, entity) の組で権限を検索する。見つからない場合はnilを返す。
	FindByTriple(ctx context.Context, url, method, entity string) (*model.Permission, error)
	Create(ctx context.Context, permission *model.Permission) error
	Update(ctx context.Context, permission *model.Permission) error
	// DeleteWithAssociations は権限と、それを参照するrole_permissionsを同一トランザクションで削除する。
	DeleteWithAssociations(ctx context.Context, id int64) error
}

// UserRoleRepository はロール割り当ての永続化インターフェース。
type UserRoleRepository interface {
	List(ctx context.Context) ([]*model.UserRole, error)
	FindByID(ctx context.Context, id string) (*model.UserRole, error)
	ListByUserID(ctx context.Context, userID int64) ([]*model.UserRole, error)
	ListByRoleID(ctx context.Context, roleID int64) ([]*model.UserRole, error)
	FindByUserAndRole(ctx context.Context, userID, roleID int64) (*model.UserRole, error)
	Create(ctx context.Context, userRole *model.UserRole) error
	Update(ctx context.Context, userRole *model.UserRole) error
	DeleteByID(ctx context.Context, id string) error
}

// RolePermissionRepository はロールと権限の関連の永続化インターフェース。
type RolePermissionRepository interface {
	List(ctx context.Context) ([]*model.RolePermission, error)
	FindByID(ctx context.Context, id string) (*model.RolePermission, error)
	ListByRoleID(ctx context.Context, roleID int64) ([]*model.RolePermission, error)
	ListByPermissionID(ctx context.Context, permissionID int64) ([]*model.RolePermission, error)
	FindByRoleAndPermission(ctx context.Context, roleID, permissionID int64) (*model.RolePermission, error)
	// PermissionIDsByRole はロールに紐づく権限IDの集合を返す。ロールが存在しない場合は空集合。
	PermissionIDsByRole(ctx context.Context, roleID int64) (map[int64]struct{}, error)
	Create(ctx context.Context, rolePermission *model.RolePermission) error
	DeleteByID(ctx context.Context, id string) error
}
