package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TTL はセッショントークンの有効期間。発行時刻からの絶対期限で、延長はしない。
	TTL = 24 * time.Hour
	// Issuer はトークンのissクレームに設定する発行者名。
	Issuer = "lofy-console"
)

var (
	// ErrSecretNotConfigured は署名鍵が設定されていないことを表す。
	// デプロイの設定不備であり、この状態では全てのトークンが拒否される。
	ErrSecretNotConfigured = errors.New("session: signing secret is not configured")
	// ErrInvalidToken は署名不正・期限切れ・形式不正などでトークンが無効であることを表す。
	ErrInvalidToken = errors.New("session: invalid token")
)

// Claims はセッショントークンのクレーム（ペイロード）を表す。
type Claims struct {
	// UserID はチームメンバーの一意識別子。必須。
	UserID string `json:"userId"`
	// LofyID はログインに使うLofy ID。
	LofyID string `json:"lofyId,omitempty"`
	// Name はメンバーの氏名。
	Name string `json:"name,omitempty"`
	// DisplayName は表示名。未設定の場合はnull。
	DisplayName *string `json:"displayName"`
	// Role はロールID。
	Role int `json:"role"`
	jwt.RegisteredClaims
}

// Identity はトークンに埋め込むメンバー情報。
type Identity struct {
	UserID      string
	LofyID      string
	Name        string
	DisplayName *string
	Role        int
}

// Manager はセッショントークンの発行と検証を行う。
// 生成後は不変であり、複数のゴルーチンから同時に使用できる。
type Manager struct {
	// secret はHS256の署名鍵。
	secret []byte
	// now は現在時刻を返す関数。テストで差し替える。
	now func() time.Time
}

// Option はManagerの設定を変更する関数。
type Option func(*Manager)

// WithClock は発行・検証で使用する時刻関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager は署名鍵を指定してManagerを生成する。
// 空の署名鍵も受け付けるが、その場合は発行も検証も必ず失敗する。
func NewManager(secret string, opts ...Option) *Manager {
	m := &Manager{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured は署名鍵が設定されているかを返す。
func (m *Manager) Configured() bool {
	return len(m.secret) > 0
}

// Issue はメンバー情報から新しいセッショントークンを発行する。
func (m *Manager) Issue(id Identity) (string, error) {
	if !m.Configured() {
		return "", ErrSecretNotConfigured
	}
	if id.UserID == "" {
		return "", errors.New("session: userId is required")
	}

	now := m.now()
	claims := Claims{
		UserID:      id.UserID,
		LofyID:      id.LofyID,
		Name:        id.Name,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("セッショントークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、クレームを返す。
// 失敗時はErrInvalidTokenをラップしたエラーか、ErrSecretNotConfiguredを返す。
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if !m.Configured() {
		return nil, ErrSecretNotConfigured
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: userId claim is missing", ErrInvalidToken)
	}
	return claims, nil
}
