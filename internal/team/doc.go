// Package team は管理コンソールにログインできるチームメンバー（lofy_team テーブル）を扱う。
//
// クエリはsqlc生成コードと同じ形（Queries と引数構造体）で手書きしており、
// SQLiteとPostgreSQLの両方で動作する。パスワードはbcryptでハッシュ化する。
package team
