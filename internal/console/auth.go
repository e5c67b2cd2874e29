package console

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lofy-app/console/internal/ratelimit"
	"github.com/lofy-app/console/internal/team"
	"github.com/lofy-app/console/pkg/middleware"
	"github.com/lofy-app/console/pkg/session"
)

// レスポンスのエラーメッセージ。どの条件で失敗したかは返さない。
const (
	msgInvalidCredentials = "Invalid credentials."
	msgTooManyAttempts    = "Too many login attempts. Please try again later."
	msgUnexpected         = "An unexpected error occurred."
	msgNotAuthenticated   = "Not authenticated."
)

// loginRequest はログインAPIのリクエストボディ。
// identifierにはLofy IDまたはメールアドレスを指定する。
type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
}

// handleLogin はチームメンバーのログインを処理するハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidCredentials})
			return
		}
		identifier := strings.TrimSpace(req.Identifier)
		if identifier == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidCredentials})
			return
		}

		ctx := c.Request.Context()
		ip := c.ClientIP()

		if err := s.limiter.Attempt(ctx, identifier, ip); err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				log.Warn().Str("identifier", identifier).Str("client_ip", ip).Msg("ログイン試行回数の上限に達しました")
				c.JSON(http.StatusTooManyRequests, gin.H{"error": msgTooManyAttempts})
				return
			}
			log.Warn().Err(err).Msg("ログイン制限を確認できません。制限なしで続行します")
		}

		member, err := s.queries.FindByIdentifier(ctx, identifier)
		if err != nil && !errors.Is(err, team.ErrNotFound) {
			log.Error().Err(err).Msg("チームメンバーの取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnexpected})
			return
		}
		if err != nil || !member.CanLogin() || !team.ComparePassword(member, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
			return
		}

		token, err := s.sessions.Issue(identityOf(member))
		if err != nil {
			log.Error().Err(err).Msg("セッショントークンの発行に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnexpected})
			return
		}

		if err := s.limiter.Reset(ctx, identifier, ip); err != nil {
			log.Warn().Err(err).Msg("ログイン制限のリセットに失敗")
		}
		if err := s.queries.UpdateLastLogin(ctx, member.ID, s.now()); err != nil {
			log.Warn().Err(err).Int64("member_id", member.ID).Msg("最終ログイン日時の更新に失敗")
		}

		http.SetCookie(c.Writer, session.NewCookie(token, s.secureCookie))
		log.Info().Int64("member_id", member.ID).Str("lofy_id", member.LofyID).Msg("ログインしました")

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user": gin.H{
				"name": member.Label(),
				"role": member.RoleID,
			},
		})
	}
}

// handleLogout はセッションCookieを削除するハンドラを返す。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		http.SetCookie(c.Writer, session.ClearCookie(s.secureCookie))
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// handleGetCurrentUser は認証済みユーザーの情報を返すハンドラを返す。
// ゲートが検証済みのクレームを使い、トークンを再検証しない。
func (s *Server) handleGetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"userId":      claims.UserID,
				"lofyId":      claims.LofyID,
				"name":        claims.Name,
				"displayName": claims.DisplayName,
				"role":        claims.Role,
			},
		})
	}
}

// identityOf はメンバーからセッションに載せる情報を作る。
func identityOf(m team.Member) session.Identity {
	id := session.Identity{
		UserID: strconv.FormatInt(m.ID, 10),
		LofyID: m.LofyID,
		Name:   m.Name,
		Role:   int(m.RoleID),
	}
	if m.DisplayName.Valid {
		displayName := m.DisplayName.String
		id.DisplayName = &displayName
	}
	return id
}
