// Package httpclient は認証ゲートを通過したリクエストを上流のダッシュボードアプリへ
// 転送するHTTPクライアントを提供する。
//
// タイムアウト付きのHTTPクライアントをラップし、ホップバイホップヘッダーの除去と
// 検証済みユーザーID（X-User-ID）の付与を行う。
package httpclient
