package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

// runConsole はconsoleコマンドを実行し、標準出力の内容を返す。
func runConsole(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// useTempDatabase は一時ディレクトリのSQLiteファイルを使うよう環境変数を設定する。
func useTempDatabase(t *testing.T) {
	t.Helper()

	t.Setenv("CONSOLE_CONFIG", "")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "console.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
}

// グローバルロガーと環境変数を書き換えるため、並列実行しない。

func TestMigrateCmd(t *testing.T) {
	useTempDatabase(t)

	out, err := runConsole(t, "", "migrate")
	if err != nil {
		t.Fatalf("migrateでエラーが発生: %v", err)
	}
	if !strings.Contains(out, "migrations applied") {
		t.Errorf("出力 = %q", out)
	}

	if _, err := runConsole(t, "", "migrate"); err != nil {
		t.Fatalf("2回目のmigrateでエラーが発生: %v", err)
	}
}

func TestMemberCmd(t *testing.T) {
	useTempDatabase(t)

	out, err := runConsole(t, "", "member", "add",
		"--lofy-id", "LOFY-0001", "--name", "Ana", "--email", "ana@lofy.app",
		"--display-name", "Ana Admin", "--role", "2", "--password", "correct-horse")
	if err != nil {
		t.Fatalf("member addでエラーが発生: %v", err)
	}
	if !strings.Contains(out, "member LOFY-0001 added") {
		t.Errorf("出力 = %q", out)
	}

	if _, err := runConsole(t, "stdin-password\n", "member", "add", "--lofy-id", "LOFY-0002", "--name", "Ben"); err != nil {
		t.Fatalf("標準入力からのパスワードでエラーが発生: %v", err)
	}

	out, err = runConsole(t, "", "member", "list")
	if err != nil {
		t.Fatalf("member listでエラーが発生: %v", err)
	}
	for _, want := range []string{"LOFY-0001", "Ana Admin", "ana@lofy.app", "LOFY-0002", "Ben"} {
		if !strings.Contains(out, want) {
			t.Errorf("出力に %q が含まれていない:\n%s", want, out)
		}
	}
}

func TestMemberAddCmd_Errors(t *testing.T) {
	useTempDatabase(t)

	t.Run("短いパスワードは拒否されること", func(t *testing.T) {
		if _, err := runConsole(t, "", "member", "add", "--lofy-id", "x", "--name", "X", "--password", "short"); err == nil {
			t.Fatal("エラーになるべき")
		}
	})

	t.Run("パスワードが無い場合はエラーになること", func(t *testing.T) {
		if _, err := runConsole(t, "", "member", "add", "--lofy-id", "x", "--name", "X"); err == nil {
			t.Fatal("エラーになるべき")
		}
	})

	t.Run("必須フラグが無い場合はエラーになること", func(t *testing.T) {
		if _, err := runConsole(t, "", "member", "add", "--name", "X", "--password", "correct-horse"); err == nil {
			t.Fatal("エラーになるべき")
		}
	})

	t.Run("Lofy IDの重複はエラーになること", func(t *testing.T) {
		args := []string{"member", "add", "--lofy-id", "dup", "--name", "X", "--password", "correct-horse"}
		if _, err := runConsole(t, "", args...); err != nil {
			t.Fatalf("1回目でエラーが発生: %v", err)
		}
		if _, err := runConsole(t, "", args...); err == nil {
			t.Fatal("重複した登録はエラーになるべき")
		}
	})
}
