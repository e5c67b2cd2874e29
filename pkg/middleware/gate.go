package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lofy-app/console/pkg/gate"
	"github.com/lofy-app/console/pkg/session"
)

const (
	// contextKeyClaims は検証済みクレームを格納するGinコンテキストのキー。
	contextKeyClaims = "session_claims"
	// contextKeyUserID は検証済みユーザーIDを格納するGinコンテキストのキー。
	contextKeyUserID = "user_id"
	// contextKeyOutcome はゲートの判定理由を格納するGinコンテキストのキー。
	contextKeyOutcome = "gate_outcome"
)

// Gate は認証ゲートの判定をGinのレスポンスに反映するミドルウェアを返す。
// secureCookieはクッキー削除時のSecure属性に使用する。
//
// 正規化されていないパス（".."や"//"を含むもの）は正規化後のパスへリダイレクトし、
// 転送しない。静的アセットはヘッダーもクッキーも触らずに通す。それ以外では
// クライアントが送ってきたX-User-IDヘッダーを破棄し、検証に成功した
// 場合のみゲート自身が設定する。
func Gate(g *gate.Gate, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Evaluate(gate.Request{
			Path:        c.Request.URL.Path,
			EscapedPath: c.Request.URL.EscapedPath(),
			RawQuery:    c.Request.URL.RawQuery,
			Token: func() string {
				value, err := c.Cookie(session.CookieName)
				if err != nil {
					return ""
				}
				return value
			},
		})
		c.Set(contextKeyOutcome, string(d.Outcome))

		if d.Bypass() {
			c.Next()
			return
		}

		c.Request.Header.Del(gate.HeaderUserID)
		if d.SecurityHeaders {
			gate.ApplySecurityHeaders(c.Writer.Header())
		}
		if d.ClearCookie {
			http.SetCookie(c.Writer, session.ClearCookie(secureCookie))
		}

		if d.Action == gate.ActionRedirect {
			c.Redirect(http.StatusTemporaryRedirect, d.Location)
			c.Abort()
			return
		}

		for key, values := range d.RequestHeaders {
			for _, v := range values {
				c.Request.Header.Add(key, v)
			}
		}
		if d.Claims != nil {
			c.Set(contextKeyClaims, d.Claims)
			c.Set(contextKeyUserID, d.Claims.UserID)
		}
		c.Next()
	}
}

// GetUserID はGinコンテキストから検証済みユーザーIDを取得する。
// Gateミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get(contextKeyUserID)
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetClaims はGinコンテキストから検証済みクレームを取得する。
// 認証されていないリクエストではnilを返す。
func GetClaims(c *gin.Context) *session.Claims {
	v, _ := c.Get(contextKeyClaims)
	if claims, ok := v.(*session.Claims); ok {
		return claims
	}
	return nil
}

// GetOutcome はGinコンテキストからゲートの判定理由を取得する。
func GetOutcome(c *gin.Context) string {
	return c.GetString(contextKeyOutcome)
}
