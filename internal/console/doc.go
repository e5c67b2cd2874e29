// Package console は管理コンソールのHTTPサーバーを提供する。
//
// 全てのリクエストは認証ゲートを通過する。ゲートを通過したリクエストのうち
// 認証API（ログイン・ログアウト・ユーザー情報）はこのサーバーが処理し、
// それ以外は上流のダッシュボードアプリへ転送する。
// 外部からアクセス可能な唯一の入口であり、セキュリティの境界線となる。
package console
