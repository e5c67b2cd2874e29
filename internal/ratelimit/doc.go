// Package ratelimit はログイン試行回数をRedisの固定ウィンドウカウンターで制限する。
//
// カウンターは識別子ごとと接続元IPごとの2種類を持つ。
// 試行はパスワード照合の前に数え、成功したログインはカウンターを削除する。
// nilの*Limiterは無効な制限として振る舞い、全ての呼び出しが何もせずnilを返す。
package ratelimit
