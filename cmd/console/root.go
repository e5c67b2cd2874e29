package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lofy-app/console/internal/config"
	"github.com/lofy-app/console/internal/database"
	"github.com/lofy-app/console/internal/team"
)

// rootOptions は全サブコマンド共通のフラグ。
type rootOptions struct {
	configPath string
}

// newRootCmd はconsoleコマンドを生成する。
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "console",
		Short:        "Lofy admin console server",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONSOLE_CONFIG"), "path to the YAML config file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newMemberCmd(opts))

	return cmd
}

// load は設定を読み込み、ロガーを設定する。
func (o *rootOptions) load(stderr io.Writer) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.Log, stderr)
	return cfg, nil
}

// openDatabase はデータベースに接続し、マイグレーションを適用する。
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := team.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// setupLogger はグローバルロガーのレベルと出力形式を設定する。
func setupLogger(cfg config.LogConfig, out io.Writer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
