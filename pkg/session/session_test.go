package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用の署名鍵。
const testSecret = "test-secret-key-for-unit-tests"

// fixedClock は固定時刻を返す時刻関数を生成する。
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestManagerIssue はIssueメソッドを検証する。
func TestManagerIssue(t *testing.T) {
	t.Parallel()

	t.Run("全てのクレームが設定されたトークンを発行できること", func(t *testing.T) {
		t.Parallel()

		displayName := "Alice A."
		m := NewManager(testSecret)
		tokenStr, err := m.Issue(Identity{
			UserID:      "42",
			LofyID:      "alice",
			Name:        "Alice",
			DisplayName: &displayName,
			Role:        2,
		})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims, err := m.Verify(tokenStr)
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if claims.UserID != "42" {
			t.Errorf("UserID = %q, want %q", claims.UserID, "42")
		}
		if claims.LofyID != "alice" {
			t.Errorf("LofyID = %q, want %q", claims.LofyID, "alice")
		}
		if claims.Name != "Alice" {
			t.Errorf("Name = %q, want %q", claims.Name, "Alice")
		}
		if claims.DisplayName == nil || *claims.DisplayName != displayName {
			t.Errorf("DisplayName = %v, want %q", claims.DisplayName, displayName)
		}
		if claims.Role != 2 {
			t.Errorf("Role = %d, want %d", claims.Role, 2)
		}
		if claims.Issuer != Issuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, Issuer)
		}
		if claims.ID == "" {
			t.Error("jtiが設定されていない")
		}
	})

	t.Run("有効期限が発行時刻の24時間後であること", func(t *testing.T) {
		t.Parallel()

		issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		m := NewManager(testSecret, WithClock(fixedClock(issuedAt)))
		tokenStr, err := m.Issue(Identity{UserID: "exp"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims, err := m.Verify(tokenStr)
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if !claims.IssuedAt.Time.Equal(issuedAt) {
			t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt.Time, issuedAt)
		}
		if want := issuedAt.Add(24 * time.Hour); !claims.ExpiresAt.Time.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt.Time, want)
		}
	})

	t.Run("displayNameが未設定の場合nullとしてエンコードされること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(testSecret)
		tokenStr, err := m.Issue(Identity{UserID: "no-display"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		raw := jwt.MapClaims{}
		if _, _, err := new(jwt.Parser).ParseUnverified(tokenStr, raw); err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		v, ok := raw["displayName"]
		if !ok {
			t.Fatal("displayNameクレームが存在しない")
		}
		if v != nil {
			t.Errorf("displayName = %v, want nil", v)
		}
	})

	t.Run("ログインごとに異なるトークンが発行されること", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		m := NewManager(testSecret, WithClock(fixedClock(now)))
		first, err := m.Issue(Identity{UserID: "same"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		second, err := m.Issue(Identity{UserID: "same"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		if first == second {
			t.Error("同一時刻の発行でも異なるトークンになるべき")
		}
	})

	t.Run("署名アルゴリズムがHS256であること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewManager(testSecret).Issue(Identity{UserID: "alg"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		token, _, err := new(jwt.Parser).ParseUnverified(tokenStr, &Claims{})
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if token.Method.Alg() != "HS256" {
			t.Errorf("署名アルゴリズム = %q, want %q", token.Method.Alg(), "HS256")
		}
	})

	t.Run("署名鍵が未設定の場合ErrSecretNotConfiguredを返すこと", func(t *testing.T) {
		t.Parallel()

		_, err := NewManager("").Issue(Identity{UserID: "x"})
		if !errors.Is(err, ErrSecretNotConfigured) {
			t.Errorf("err = %v, want %v", err, ErrSecretNotConfigured)
		}
	})

	t.Run("userIdが空の場合エラーを返すこと", func(t *testing.T) {
		t.Parallel()

		if _, err := NewManager(testSecret).Issue(Identity{}); err == nil {
			t.Error("userIdが空のトークン発行はエラーになるべき")
		}
	})
}

// TestManagerVerify はVerifyメソッドを検証する。
func TestManagerVerify(t *testing.T) {
	t.Parallel()

	t.Run("期限切れトークンはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		issuedAt := time.Now().Add(-25 * time.Hour)
		tokenStr, err := NewManager(testSecret, WithClock(fixedClock(issuedAt))).Issue(Identity{UserID: "expired"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		_, err = NewManager(testSecret).Verify(tokenStr)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("有効期限の直前までは検証に成功すること", func(t *testing.T) {
		t.Parallel()

		issuedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		tokenStr, err := NewManager(testSecret, WithClock(fixedClock(issuedAt))).Issue(Identity{UserID: "edge"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		justBefore := NewManager(testSecret, WithClock(fixedClock(issuedAt.Add(TTL-time.Second))))
		if _, err := justBefore.Verify(tokenStr); err != nil {
			t.Errorf("期限前の検証でエラー: %v", err)
		}
		after := NewManager(testSecret, WithClock(fixedClock(issuedAt.Add(TTL+time.Second))))
		if _, err := after.Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("期限後の検証 err = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("異なる署名鍵のトークンはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewManager("another-secret").Issue(Identity{UserID: "wrong"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		if _, err := NewManager(testSecret).Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("改ざんされたトークンはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(testSecret)
		tokenStr, err := m.Issue(Identity{UserID: "tamper"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		parts := strings.Split(tokenStr, ".")
		forged, err := NewManager("attacker").Issue(Identity{UserID: "admin"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		// ペイロードだけ差し替え、元の署名を残す
		parts[1] = strings.Split(forged, ".")[1]
		if _, err := m.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("HS256以外のアルゴリズムは拒否されること", func(t *testing.T) {
		t.Parallel()

		claims := Claims{
			UserID: "hs512",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		if _, err := NewManager(testSecret).Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("expクレームが無いトークンは拒否されること", func(t *testing.T) {
		t.Parallel()

		claims := Claims{
			UserID: "no-exp",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:   Issuer,
				IssuedAt: jwt.NewNumericDate(time.Now()),
			},
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		if _, err := NewManager(testSecret).Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("userIdクレームが空のトークンは拒否されること", func(t *testing.T) {
		t.Parallel()

		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		if _, err := NewManager(testSecret).Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("不正な形式の文字列はErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{"", "invalid-token-string", "a.b.c", "..."} {
			if _, err := NewManager(testSecret).Verify(input); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%q) err = %v, want %v", input, err, ErrInvalidToken)
			}
		}
	})

	t.Run("署名鍵が未設定の場合は常に失敗すること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewManager(testSecret).Issue(Identity{UserID: "valid"})
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		if _, err := NewManager("").Verify(tokenStr); !errors.Is(err, ErrSecretNotConfigured) {
			t.Errorf("err = %v, want %v", err, ErrSecretNotConfigured)
		}
	})
}

// TestCookies はセッションクッキーの属性を検証する。
func TestCookies(t *testing.T) {
	t.Parallel()

	t.Run("セッションクッキーの属性が正しいこと", func(t *testing.T) {
		t.Parallel()

		c := NewCookie("token-value", true)
		if c.Name != "lofy_session" {
			t.Errorf("Name = %q, want %q", c.Name, "lofy_session")
		}
		if c.Value != "token-value" {
			t.Errorf("Value = %q, want %q", c.Value, "token-value")
		}
		if c.MaxAge != 86400 {
			t.Errorf("MaxAge = %d, want %d", c.MaxAge, 86400)
		}
		if !c.HttpOnly || !c.Secure || c.Path != "/" {
			t.Errorf("HttpOnly=%v Secure=%v Path=%q", c.HttpOnly, c.Secure, c.Path)
		}
		got := c.String()
		if !strings.Contains(got, "SameSite=Lax") {
			t.Errorf("Set-Cookie = %q, SameSite=Laxを含むべき", got)
		}
	})

	t.Run("開発環境ではSecure属性が付かないこと", func(t *testing.T) {
		t.Parallel()

		if NewCookie("v", false).Secure {
			t.Error("Secure = true, want false")
		}
	})

	t.Run("削除用クッキーがMax-Age=0で出力されること", func(t *testing.T) {
		t.Parallel()

		got := ClearCookie(false).String()
		if !strings.HasPrefix(got, "lofy_session=;") {
			t.Errorf("Set-Cookie = %q, 空の値であるべき", got)
		}
		if !strings.Contains(got, "Max-Age=0") {
			t.Errorf("Set-Cookie = %q, Max-Age=0を含むべき", got)
		}
	})
}
