package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lofy-app/console/internal/config"
	"github.com/lofy-app/console/internal/console"
	"github.com/lofy-app/console/internal/ratelimit"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the console server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Error().Err(err).Msg("データベースのクローズに失敗")
				}
			}()

			limiter, closeRedis := newLimiter(ctx, cfg)
			defer closeRedis()

			server, err := console.NewServer(cfg, db, limiter)
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
	}
}

// newLimiter はRedisアドレスが設定されている場合にログイン制限を生成する。
// 起動時にRedisへ接続できなくても起動は続ける。その間のログインは制限しない。
func newLimiter(ctx context.Context, cfg *config.Config) (*ratelimit.Limiter, func()) {
	if cfg.Redis.Address == "" {
		log.Info().Msg("REDIS_ADDR が未設定のため、ログイン制限は無効です")
		return nil, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("Redisに接続できません")
	}

	limiter := ratelimit.New(rdb, ratelimit.Config{
		MaxAttempts: cfg.LoginLimit.MaxAttempts,
		Window:      cfg.LoginLimit.Window,
	})
	return limiter, func() { _ = rdb.Close() }
}
