// Package gate は管理コンソールの全リクエストに対する認証ゲートの判定ロジックを提供する。
//
// 判定はHTTPフレームワークに依存しない純粋関数として実装されている。
// パス・クエリ・セッションクッキーから Decision（転送またはリダイレクト、
// 付与するヘッダー、クッキー削除の要否）を返し、実際のレスポンスへの
// 反映は pkg/middleware のアダプターが行う。リクエスト間で共有する
// 可変状態は持たない。
package gate
