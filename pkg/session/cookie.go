package session

import (
	"net/http"
)

// CookieName はセッショントークンを運ぶクッキー名。
const CookieName = "lofy_session"

// NewCookie はトークンを格納するセッションクッキーを生成する。
// secureは本番環境でtrueにする。
func NewCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie はセッションクッキーを即時失効させるクッキーを生成する。
// Set-Cookieヘッダーには Max-Age=0 として出力される。
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
