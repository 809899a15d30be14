// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// パスワードは保存せず、argon2idによるソルトと検証値のみを保持する。
type User struct {
	ID           string
	Email        string
	PasswordSalt []byte
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
