// Package middleware は管理コンソールのGinエンジンで使用するミドルウェアを提供する。
//
// pkg/gate の判定結果をGinのレスポンスに反映する認証ゲート、
// zerologによるアクセスログ、パニックリカバリを含む。
package middleware
