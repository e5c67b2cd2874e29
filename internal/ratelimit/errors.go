package ratelimit

import "errors"

var (
	// ErrRateLimited はログイン試行回数が上限に達したことを表す。
	ErrRateLimited = errors.New("ratelimit: too many login attempts")
	// ErrRedisUnavailable はRedisとの通信に失敗したことを表す。
	ErrRedisUnavailable = errors.New("ratelimit: redis unavailable")
)
