package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultMaxAttempts はウィンドウ内で許容するログイン失敗回数の既定値。
	DefaultMaxAttempts = 5
	// DefaultWindow は失敗回数を数える期間の既定値。
	DefaultWindow = 15 * time.Minute

	keyPrefix = "console:login:"
)

// Config はログイン制限の設定。
type Config struct {
	// MaxAttempts はウィンドウ内で許容する試行回数。
	MaxAttempts int
	// Window はカウンターの有効期間。最初の試行から数える。
	Window time.Duration
}

// Limiter はログイン試行回数を識別子と接続元IPごとに数える。
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New はRedisクライアントを使うLimiterを生成する。
// 設定値が0以下の場合は既定値を使う。
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Limiter{redis: client, config: cfg}
}

// Enabled は制限が有効かどうかを返す。
func (l *Limiter) Enabled() bool {
	return l != nil && l.redis != nil
}

// Attempt はログイン試行を1回数え、識別子と接続元IPのどちらかが上限を超えていればErrRateLimitedを返す。
// 判定はINCRの結果で行うため、同時に届いた試行が上限を超えて通ることはない。
// ログイン成功時はResetでカウンターを削除する。
func (l *Limiter) Attempt(ctx context.Context, identifier, ip string) error {
	if !l.Enabled() {
		return nil
	}
	limited := false
	for _, key := range keys(identifier, ip) {
		count, err := l.incrementWithTTL(ctx, key)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxAttempts) {
			limited = true
		}
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// Reset は識別子と接続元IPのカウンターを削除する。ログイン成功時に呼ぶ。
func (l *Limiter) Reset(ctx context.Context, identifier, ip string) error {
	if !l.Enabled() {
		return nil
	}
	if err := l.redis.Del(ctx, keys(identifier, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts は識別子の現在の試行回数を返す。
func (l *Limiter) Attempts(ctx context.Context, identifier string) (int, error) {
	if !l.Enabled() {
		return 0, nil
	}
	count, err := l.redis.Get(ctx, identifierKey(identifier)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// 固定ウィンドウ: TTLは最初の試行時にのみ設定する
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

func identifierKey(identifier string) string {
	return keyPrefix + "id:" + identifier
}

func ipKey(ip string) string {
	return keyPrefix + "ip:" + ip
}

// keys は対象のカウンターキーを返す。IPが空の場合は識別子のみ。
func keys(identifier, ip string) []string {
	ks := []string{identifierKey(identifier)}
	if ip != "" {
		ks = append(ks, ipKey(ip))
	}
	return ks
}
