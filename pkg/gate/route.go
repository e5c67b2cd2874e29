package gate

import (
	"path"
	"strings"
)

// RouteClass はリクエストパスの分類。
type RouteClass int

const (
	// RouteProtected は認証が必要なパス。
	RouteProtected RouteClass = iota
	// RouteStatic は認証もセキュリティヘッダーも適用しない静的アセット。
	RouteStatic
	// RoutePublic は認証なしでアクセスできるパス。
	RoutePublic
)

// String はログ出力用の分類名を返す。
func (r RouteClass) String() string {
	switch r {
	case RouteStatic:
		return "static"
	case RoutePublic:
		return "public"
	default:
		return "protected"
	}
}

const (
	// RootPath はトップページのパス。
	RootPath = "/"
	// LoginPath はログインページのパス。
	LoginPath = "/login"
	// DashboardPath は認証済みユーザーの遷移先。
	DashboardPath = "/dashboard"
	// LoginAPIPath はログインAPIのパス。
	LoginAPIPath = "/api/auth/login"
	// LogoutAPIPath はログアウトAPIのパス。
	LogoutAPIPath = "/api/auth/logout"
)

// publicPages は完全一致で公開するページ。
var publicPages = []string{RootPath, LoginPath}

// publicAPIs は前方一致（配下のパスを含む）で公開するAPI。
var publicAPIs = []string{LoginAPIPath, LogoutAPIPath}

// staticPrefixes は静的アセットとして扱うパスの接頭辞。
var staticPrefixes = []string{"/_next/", "/favicon"}

// staticExtensions は静的アセットとして扱う拡張子。
var staticExtensions = []string{".ico", ".png", ".jpg", ".jpeg", ".svg", ".css", ".js", ".woff", ".woff2", ".ttf"}

// Classify はパス文字列を静的アセット・公開・保護のいずれかに分類する。
func Classify(path string) RouteClass {
	if isStatic(path) {
		return RouteStatic
	}
	if isPublic(path) {
		return RoutePublic
	}
	return RouteProtected
}

// CleanPath はパスを正規化する。"."と".."を解決し、連続する"/"を1つにまとめる。
// 末尾の"/"は保持する。空のパスは"/"になる。
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

func isStatic(path string) bool {
	for _, prefix := range staticPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, ext := range staticExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func isPublic(path string) bool {
	for _, page := range publicPages {
		if path == page {
			return true
		}
	}
	// "/api/auth/loginx" のような兄弟パスは含めない
	for _, api := range publicAPIs {
		if path == api || strings.HasPrefix(path, api+"/") {
			return true
		}
	}
	return false
}
