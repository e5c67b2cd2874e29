package gate

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/lofy-app/console/pkg/session"
)

// HeaderUserID は検証済みユーザーIDを下流のハンドラへ伝えるリクエストヘッダー。
// ゲート以外が設定した値は信用してはならない。
const HeaderUserID = "X-User-ID"

// RedirectParam はログイン後の戻り先を渡すクエリパラメータ名。
const RedirectParam = "redirect"

// securityHeaders は静的アセット以外の全レスポンスに付与するヘッダー。
var securityHeaders = [...][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
}

// ApplySecurityHeaders はセキュリティヘッダーをhに設定する。
func ApplySecurityHeaders(h http.Header) {
	for _, kv := range securityHeaders {
		h.Set(kv[0], kv[1])
	}
}

// Action はゲートの判定結果の種類。
type Action int

const (
	// ActionForward はリクエストを後続のハンドラへ転送する。
	ActionForward Action = iota
	// ActionRedirect はリクエストをLocationへリダイレクトする。
	ActionRedirect
)

// Outcome はログに出力する判定理由。
type Outcome string

const (
	// OutcomeStatic は静的アセットとして素通りさせた。
	OutcomeStatic Outcome = "static"
	// OutcomePublic は公開パスとして転送した。
	OutcomePublic Outcome = "public"
	// OutcomeAlreadyAuthenticated はログイン済みのためログイン画面からダッシュボードへ戻した。
	OutcomeAlreadyAuthenticated Outcome = "already_authenticated"
	// OutcomeNoSession はセッションクッキーが無いためログイン画面へリダイレクトした。
	OutcomeNoSession Outcome = "no_session"
	// OutcomeInvalidSession はトークンが無効なためクッキーを削除してリダイレクトした。
	OutcomeInvalidSession Outcome = "invalid_session"
	// OutcomeAuthenticated は検証に成功し、ユーザーIDを付けて転送した。
	OutcomeAuthenticated Outcome = "authenticated"
	// OutcomeNonCanonicalPath は正規化されていないパスのため正規化後のパスへリダイレクトした。
	OutcomeNonCanonicalPath Outcome = "non_canonical_path"
)

// Verifier はセッショントークンを検証する。*session.Manager が満たす。
type Verifier interface {
	Verify(token string) (*session.Claims, error)
}

// Request はゲートの判定に必要なリクエスト情報。
type Request struct {
	// Path はデコード済みのリクエストパス。分類はこの値で行う。
	Path string
	// EscapedPath はエンコード済みのリクエストパス。リダイレクト先の組み立てに使う。
	// 空の場合はPathを使う。
	EscapedPath string
	// RawQuery はエンコード済みのクエリ文字列（"?"を含まない）。
	RawQuery string
	// Token はセッションクッキーの値を返す。クッキーが無い場合は空文字列を返す。
	// 静的アセットの判定では呼び出されない。
	Token func() string
}

// Decision はゲートの判定結果。
type Decision struct {
	// Route はパスの分類。
	Route RouteClass
	// Action は転送かリダイレクトか。
	Action Action
	// Location はリダイレクト先。ActionRedirect の場合のみ設定される。
	Location string
	// ClearCookie はセッションクッキーを削除するかどうか。
	ClearCookie bool
	// SecurityHeaders はレスポンスにセキュリティヘッダーを付与するかどうか。
	SecurityHeaders bool
	// RequestHeaders は転送するリクエストに追加するヘッダー。
	RequestHeaders http.Header
	// Claims は検証済みのクレーム。認証に成功した場合のみ設定される。
	Claims *session.Claims
	// Outcome は判定理由。
	Outcome Outcome
}

// Bypass はレスポンスにもリクエストにも手を加えず素通りさせる判定かどうかを返す。
func (d Decision) Bypass() bool {
	return d.Action == ActionForward && d.Route == RouteStatic
}

// Gate はリクエストごとに転送・リダイレクトを判定する。
// 状態を持たないため、複数のゴルーチンから同時に使用できる。
type Gate struct {
	verifier Verifier
}

// New はトークン検証器を指定してGateを生成する。
// verifierがnilの場合、全てのトークン検証は失敗する。
func New(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Evaluate はリクエストを判定する。
// 判定は必ず転送かリダイレクトのいずれかになり、エラーを返すことはない。
// 正規化されていないパスは分類せず、正規化後のパスへリダイレクトする。
func (g *Gate) Evaluate(r Request) Decision {
	if cleaned := CleanPath(r.Path); cleaned != r.Path {
		return Decision{
			Route:           Classify(cleaned),
			Action:          ActionRedirect,
			Location:        withQuery((&url.URL{Path: cleaned}).EscapedPath(), r.RawQuery),
			SecurityHeaders: true,
			Outcome:         OutcomeNonCanonicalPath,
		}
	}

	route := Classify(r.Path)

	switch route {
	case RouteStatic:
		return Decision{Route: route, Action: ActionForward, Outcome: OutcomeStatic}

	case RoutePublic:
		if r.Path == LoginPath {
			if token := readToken(r); token != "" {
				if _, ok := g.verify(token); ok {
					return Decision{
						Route:           route,
						Action:          ActionRedirect,
						Location:        DashboardPath,
						SecurityHeaders: true,
						Outcome:         OutcomeAlreadyAuthenticated,
					}
				}
			}
		}
		return Decision{Route: route, Action: ActionForward, SecurityHeaders: true, Outcome: OutcomePublic}
	}

	token := readToken(r)
	if token == "" {
		return Decision{
			Route:           route,
			Action:          ActionRedirect,
			Location:        LoginRedirect(requestPath(r), r.RawQuery),
			SecurityHeaders: true,
			Outcome:         OutcomeNoSession,
		}
	}

	claims, ok := g.verify(token)
	if !ok {
		return Decision{
			Route:           route,
			Action:          ActionRedirect,
			Location:        LoginRedirect(requestPath(r), r.RawQuery),
			ClearCookie:     true,
			SecurityHeaders: true,
			Outcome:         OutcomeInvalidSession,
		}
	}

	return Decision{
		Route:           route,
		Action:          ActionForward,
		SecurityHeaders: true,
		RequestHeaders:  http.Header{HeaderUserID: []string{claims.UserID}},
		Claims:          claims,
		Outcome:         OutcomeAuthenticated,
	}
}

// LoginRedirect は元のパスとクエリを redirect パラメータに保持したログインURLを返す。
// escapedPathにはエンコード済みのパスを渡す。デコード済みのパスでは"%3F"がクエリの区切りに化ける。
func LoginRedirect(escapedPath, rawQuery string) string {
	target := withQuery(escapedPath, rawQuery)
	return LoginPath + "?" + url.Values{RedirectParam: []string{target}}.Encode()
}

func withQuery(p, rawQuery string) string {
	if rawQuery == "" {
		return p
	}
	return p + "?" + rawQuery
}

func requestPath(r Request) string {
	if r.EscapedPath != "" {
		return r.EscapedPath
	}
	return r.Path
}

func readToken(r Request) string {
	if r.Token == nil {
		return ""
	}
	return r.Token()
}

// verify はトークンを検証する。検証器のパニックも含め、失敗は全て無効なセッションとして扱う。
func (g *Gate) verify(token string) (claims *session.Claims, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("panic", fmt.Sprint(rec)).Msg("セッション検証中にパニックが発生したため無効なセッションとして扱います")
			claims, ok = nil, false
		}
	}()

	if g.verifier == nil {
		log.Error().Msg("セッション検証器が設定されていません")
		return nil, false
	}

	claims, err := g.verifier.Verify(token)
	switch {
	case err == nil && claims != nil:
		return claims, true
	case errors.Is(err, session.ErrSecretNotConfigured):
		log.Error().Err(err).Msg("JWT_SECRETが未設定のため全てのセッションを拒否します")
	default:
		log.Debug().Err(err).Msg("無効なセッショントークン")
	}
	return nil, false
}
