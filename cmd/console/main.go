// 管理コンソールのエントリポイント。
// 認証ゲート付きのHTTPサーバーと、チームメンバー管理用のサブコマンドを提供する。
package main

import "github.com/spf13/cobra"

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}
