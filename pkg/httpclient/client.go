package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// headerUserID はユーザーIDを上流に伝播するためのHTTPヘッダーキー。
const headerUserID = "X-User-ID"

// hopByHopHeaders は転送先に引き継がないホップバイホップヘッダー。
var hopByHopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Client はゲートを通過したリクエストを上流のダッシュボードアプリへ転送するHTTPクライアント。
// リダイレクトは追従せず、上流のレスポンスをそのまま返す。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は転送先のベースURL（末尾の"/"は除去済み）。
	baseURL string
}

// New は新しい転送用HTTPクライアントを生成する。
// baseURLには転送先のベースURL（例: "http://dashboard:3000"）を指定する。
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL は転送先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Forward は受信したリクエストを同じメソッド・パス・クエリ・ボディで上流に転送する。
// X-User-IDヘッダーは受信リクエストの値を破棄し、WithUserIDで設定された値のみを付与する。
// 呼び出し側はレスポンスボディを閉じる必要がある。
func (c *Client) Forward(ctx context.Context, in *http.Request) (*http.Response, error) {
	url := c.baseURL + in.URL.EscapedPath()
	if in.URL.RawQuery != "" {
		url += "?" + in.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, in.Method, url, in.Body)
	if err != nil {
		return nil, fmt.Errorf("転送リクエストの作成に失敗: %w", err)
	}
	req.ContentLength = in.ContentLength

	req.Header = in.Header.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	for _, h := range hopByHopHeaders {
		req.Header.Del(h)
	}
	req.Header.Del(headerUserID)
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok && userID != "" {
		req.Header.Set(headerUserID, userID)
	}
	if in.Host != "" {
		req.Header.Set("X-Forwarded-Host", in.Host)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("上流への転送に失敗: %w", err)
	}
	return resp, nil
}

// IsHopByHop はヘッダーがホップバイホップヘッダーかどうかを返す。
func IsHopByHop(key string) bool {
	for _, h := range hopByHopHeaders {
		if http.CanonicalHeaderKey(key) == h {
			return true
		}
	}
	return false
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyUserID はコンテキストにユーザーIDを格納するためのキー。
const contextKeyUserID contextKey = "user_id"

// WithUserID はコンテキストに検証済みユーザーIDを設定する。
// Forwardはこの値だけを上流へのX-User-IDとして使用する。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}
