package team

import (
	"database/sql"
	"time"
)

// Member はlofy_teamテーブルの1行を表す。
type Member struct {
	ID           int64
	LofyID       string
	Name         string
	Email        sql.NullString
	DisplayName  sql.NullString
	RoleID       int32
	PasswordHash sql.NullString
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// Label は画面表示用の名前を返す。表示名が無い場合は氏名を返す。
func (m Member) Label() string {
	if m.DisplayName.Valid && m.DisplayName.String != "" {
		return m.DisplayName.String
	}
	return m.Name
}

// CanLogin はログイン可能な状態（有効かつパスワード設定済み）かどうかを返す。
func (m Member) CanLogin() bool {
	return m.IsActive && m.PasswordHash.Valid && m.PasswordHash.String != ""
}
