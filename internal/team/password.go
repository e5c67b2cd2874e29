package team

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 8

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("パスワードは%d文字以上が必要です", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(hash), nil
}

// ComparePassword はメンバーのパスワードハッシュと平文を照合する。
// ハッシュ未設定や形式不正を含め、一致しない場合は全てfalseを返す。
func ComparePassword(m Member, password string) bool {
	if !m.PasswordHash.Valid || m.PasswordHash.String == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash.String), []byte(password)) == nil
}
