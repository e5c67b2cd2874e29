// Package config は管理コンソールの設定を読み込む。
//
// 既定値、YAMLファイル、環境変数の順に上書きし、最後にValidateで検証する。
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 環境名。
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Port はリッスンポート。
	Port string `yaml:"port"`
	// UpstreamURL はゲートを通過したリクエストの転送先。空の場合は転送しない。
	UpstreamURL string `yaml:"upstream_url"`
	// TrustedProxies はX-Forwarded-Forを信用するプロキシのIPまたはCIDR。
	// 空の場合はどのプロキシも信用せず、接続元アドレスをクライアントIPとする。
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DatabaseConfig はチームメンバーを保存するデータベースの設定。
type DatabaseConfig struct {
	// Driver は "sqlite" または "postgres"。
	Driver string `yaml:"driver"`
	// URL はドライバーに渡すDSN。
	URL string `yaml:"url"`
}

// RedisConfig はログイン制限に使うRedisの設定。
type RedisConfig struct {
	// Address が空の場合、ログイン制限は無効になる。
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoginLimitConfig はログイン失敗回数の制限。
type LoginLimitConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
}

// LogConfig はログ出力の設定。
type LogConfig struct {
	// Level は debug, info, warn, error のいずれか。
	Level string `yaml:"level"`
	// Format は json または console。
	Format string `yaml:"format"`
}

// Config は管理コンソール全体の設定。
type Config struct {
	Env        string           `yaml:"env"`
	JWTSecret  string           `yaml:"jwt_secret"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	LoginLimit LoginLimitConfig `yaml:"login_limit"`
	Log        LogConfig        `yaml:"log"`
}

// Default は既定値の設定を返す。
func Default() *Config {
	return &Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Port: "8080",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			URL:    "file:console.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		},
		LoginLimit: LoginLimitConfig{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load は設定を読み込む。pathが空の場合はファイルを読まない。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv は環境変数で設定を上書きする。
func (c *Config) applyEnv() {
	c.Server.Port = getEnvOr("PORT", c.Server.Port)
	c.Server.UpstreamURL = getEnvOr("UPSTREAM_URL", c.Server.UpstreamURL)
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = splitList(v)
	}
	c.Env = getEnvOr("CONSOLE_ENV", c.Env)
	c.JWTSecret = getEnvOr("JWT_SECRET", c.JWTSecret)
	c.Database.Driver = getEnvOr("DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = getEnvOr("DATABASE_URL", c.Database.URL)
	c.Redis.Address = getEnvOr("REDIS_ADDR", c.Redis.Address)
	c.Redis.Password = getEnvOr("REDIS_PASSWORD", c.Redis.Password)
	c.Log.Level = getEnvOr("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOr("LOG_FORMAT", c.Log.Format)
}

// Validate は設定値を検証する。
// JWTSecretが空でもエラーにはしない。その場合、全てのセッションが拒否される。
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port が空です"))
	}
	for _, proxy := range c.Server.TrustedProxies {
		if !validProxy(proxy) {
			errs = append(errs, fmt.Errorf("server.trusted_proxies に不正な値があります: %q", proxy))
		}
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("未対応のデータベースドライバー: %q", c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url が空です"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("未対応のログレベル: %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("未対応のログ形式: %q", c.Log.Format))
	}
	if c.LoginLimit.MaxAttempts <= 0 {
		errs = append(errs, errors.New("login_limit.max_attempts は1以上が必要です"))
	}
	if c.LoginLimit.Window <= 0 {
		errs = append(errs, errors.New("login_limit.window は正の値が必要です"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("設定が不正です: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SecureCookie はセッションCookieにSecure属性を付けるかどうかを返す。
func (c *Config) SecureCookie() bool {
	return c.IsProduction()
}

// validProxy はIPアドレスまたはCIDR表記かどうかを返す。
func validProxy(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(s)
	return err == nil
}

// splitList はカンマ区切りの文字列を空要素を除いて分割する。
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
