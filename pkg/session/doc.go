// Package session は管理コンソールのセッショントークンとセッションクッキーを扱う。
//
// セッショントークンはHS256で署名されたJWTで、発行から24時間で失効する。
// リフレッシュやローテーションの仕組みは持たず、ログインのたびに新しい
// トークンを発行する。署名鍵が未設定の場合、検証は常に失敗する。
package session
