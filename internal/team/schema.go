package team

import (
	"embed"
	"fmt"

	"github.com/lofy-app/console/internal/database"
	"github.com/lofy-app/console/pkg/migration"
)

// migrationsFS は方言ごとのマイグレーションファイル。
//
//go:embed migrations
var migrationsFS embed.FS

// Migrate はlofy_teamテーブルのマイグレーションを適用する。
func Migrate(db *database.DB) error {
	dir := "migrations/" + string(db.Dialect)
	if err := migration.Run(db.DB, migrationsFS, dir, db.Dialect.Rebind); err != nil {
		return fmt.Errorf("チームテーブルのマイグレーションに失敗: %w", err)
	}
	return nil
}
