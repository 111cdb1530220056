// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile はユーザーのプロフィール（1ユーザーにつき1件）。
type Profile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Phone     *string   `json:"phone"`
	Photo     *string   `json:"photo"` // アップロード先ルートからの相対パス
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address はユーザーの住所（1ユーザーにつき1件）。
type Address struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Street    string    `json:"street"`
	Number    string    `json:"number"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DigitalSignature はユーザーの電子署名画像（1ユーザーにつき1件）。
type DigitalSignature struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Photo     string    `json:"photo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Device はユーザーが利用した端末。
type Device struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	IP              string    `json:"ip"`
	OperatingSystem *string   `json:"operating_system"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserArtifacts はユーザー削除時に後始末が必要なファイル参照。
type UserArtifacts struct {
	ProfilePhoto   *string
	SignaturePhoto *string
}
