package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lofy-app/console/internal/config"
	"github.com/lofy-app/console/internal/database"
	"github.com/lofy-app/console/internal/ratelimit"
	"github.com/lofy-app/console/internal/team"
	"github.com/lofy-app/console/pkg/gate"
	"github.com/lofy-app/console/pkg/httpclient"
	"github.com/lofy-app/console/pkg/middleware"
	"github.com/lofy-app/console/pkg/session"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Server は管理コンソールのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はチームメンバーのクエリ実行オブジェクト。
	queries *team.Queries
	// sessions はセッショントークンの発行と検証を行う。
	sessions *session.Manager
	// limiter はログイン試行回数の制限。nilの場合は制限しない。
	limiter *ratelimit.Limiter
	// upstream はダッシュボードアプリへの転送クライアント。nilの場合は転送しない。
	upstream *httpclient.Client
	// secureCookie はセッションCookieにSecure属性を付けるかどうか。
	secureCookie bool
	// now は現在時刻を返す。
	now func() time.Time
}

// NewServer は新しいコンソールサーバーを生成する。
// limiterがnilの場合、ログイン試行回数は制限しない。
func NewServer(cfg *config.Config, db *database.DB, limiter *ratelimit.Limiter) (*Server, error) {
	sessions := session.NewManager(cfg.JWTSecret)
	if !sessions.Configured() {
		log.Error().Msg("JWT_SECRET が設定されていません。全てのセッションを拒否します")
	}

	var upstream *httpclient.Client
	if cfg.Server.UpstreamURL != "" {
		upstream = httpclient.New(cfg.Server.UpstreamURL)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	// 設定されたプロキシ以外からのX-Forwarded-Forは無視し、接続元アドレスをクライアントIPとする
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("信頼するプロキシの設定に失敗: %w", err)
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Gate(gate.New(sessions), cfg.SecureCookie()))

	s := &Server{
		router:       router,
		port:         cfg.Server.Port,
		queries:      team.New(db.DB, db.Dialect),
		sessions:     sessions,
		limiter:      limiter,
		upstream:     upstream,
		secureCookie: cfg.SecureCookie(),
		now:          time.Now,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はサーバーのHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルに停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("upstream", s.upstream != nil).
			Bool("login_limit", s.limiter.Enabled()).Msg("コンソールサーバーを起動します")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("コンソールサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
		log.Info().Msg("シャットダウンを開始します")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("グレースフルシャットダウンに失敗: %w", err)
		}
		return nil
	}
}

// setupRoutes はルーティングを設定する。
// ゲートはengine全体に適用されるため、NoRouteの転送もゲートを通過する。
func (s *Server) setupRoutes() {
	auth := s.router.Group("/api/auth")
	{
		auth.POST("/login", s.handleLogin())
		auth.POST("/logout", s.handleLogout())
		auth.GET("/me", s.handleGetCurrentUser())
	}

	s.router.NoRoute(s.handleForward())
}
