// Package database はリレーショナルデータベースへの接続を管理する。
//
// 接続はプロセス起動時に一度だけ生成し、必要なコンポーネントへ明示的に渡す。
// グローバル変数に接続をキャッシュしない。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect はSQL方言。
type Dialect string

const (
	// DialectSQLite はmodernc.org/sqliteを使用するSQLite。
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres はpgxを使用するPostgreSQL。
	DialectPostgres Dialect = "postgres"
)

// driverName は方言ごとのdatabase/sqlドライバー名。
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("未対応のデータベースドライバー: %q", string(d))
	}
}

// Rebind は "?" プレースホルダーを方言に合わせて変換する。
// PostgreSQLでは $1, $2, ... に置き換える。クエリ文字列リテラル内の "?" は想定しない。
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DB はSQL方言と接続プールの組。
type DB struct {
	*sql.DB
	// Dialect は接続先のSQL方言。
	Dialect Dialect
}

// Open はドライバー名とDSNからデータベースに接続し、疎通を確認する。
// driverには "sqlite" または "postgres" を指定する。
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect := Dialect(driver)
	name, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// インメモリSQLiteは接続ごとに別のDBになるため1接続に固定する
	if dialect == DialectSQLite && strings.Contains(dsn, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	return &DB{DB: sqlDB, Dialect: dialect}, nil
}
