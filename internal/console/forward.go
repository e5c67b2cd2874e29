package console

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lofy-app/console/pkg/httpclient"
	"github.com/lofy-app/console/pkg/middleware"
)

// handleForward はゲートを通過したリクエストを上流のダッシュボードアプリへ転送するハンドラを返す。
func (s *Server) handleForward() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.upstream == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
			return
		}

		ctx := httpclient.WithUserID(c.Request.Context(), middleware.GetUserID(c))
		resp, err := s.upstream.Forward(ctx, c.Request)
		if err != nil {
			log.Error().Err(err).Str("upstream", s.upstream.BaseURL()).Str("path", c.Request.URL.Path).
				Msg("上流との通信に失敗")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream unavailable."})
			return
		}
		defer func() { _ = resp.Body.Close() }()

		copyResponseHeaders(c.Writer.Header(), resp.Header)
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("上流レスポンスの転送が中断されました")
		}
	}
}

// copyResponseHeaders は上流のレスポンスヘッダーをdstに追加する。
// ゲートが設定済みのヘッダーは上書きしない。Set-Cookieのみ追記する。
func copyResponseHeaders(dst, src http.Header) {
	for key, values := range src {
		if httpclient.IsHopByHop(key) {
			continue
		}
		if key != "Set-Cookie" && len(dst.Values(key)) > 0 {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
