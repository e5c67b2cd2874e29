package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lofy-app/console/internal/database"
)

// ErrNotFound は該当するメンバーが存在しないことを表す。
var ErrNotFound = errors.New("team: member not found")

// DBTX は*sql.DBと*sql.Txの共通インターフェース。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries はlofy_teamテーブルに対するクエリを実行する。
type Queries struct {
	db      DBTX
	dialect database.Dialect
}

// New はQueriesを生成する。
func New(db DBTX, dialect database.Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

const memberColumns = `id, lofy_id, name, email, display_name, role_id, password_hash, is_active, created_at, last_login_at`

func scanMember(row interface{ Scan(...any) error }) (Member, error) {
	var m Member
	err := row.Scan(
		&m.ID,
		&m.LofyID,
		&m.Name,
		&m.Email,
		&m.DisplayName,
		&m.RoleID,
		&m.PasswordHash,
		&m.IsActive,
		&m.CreatedAt,
		&m.LastLoginAt,
	)
	return m, err
}

const getMemberByLofyID = `SELECT ` + memberColumns + ` FROM lofy_team WHERE lofy_id = ?`

// GetMemberByLofyID はLofy IDでメンバーを取得する。
func (q *Queries) GetMemberByLofyID(ctx context.Context, lofyID string) (Member, error) {
	m, err := scanMember(q.db.QueryRowContext(ctx, q.dialect.Rebind(getMemberByLofyID), lofyID))
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return m, err
}

const getMemberByEmail = `SELECT ` + memberColumns + ` FROM lofy_team WHERE email = ?`

// GetMemberByEmail はメールアドレスでメンバーを取得する。
func (q *Queries) GetMemberByEmail(ctx context.Context, email string) (Member, error) {
	m, err := scanMember(q.db.QueryRowContext(ctx, q.dialect.Rebind(getMemberByEmail), email))
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return m, err
}

// FindByIdentifier はLofy IDまたはメールアドレスでメンバーを取得する。
// Lofy IDを優先し、見つからず識別子に"@"を含む場合のみメールアドレスで検索する。
func (q *Queries) FindByIdentifier(ctx context.Context, identifier string) (Member, error) {
	m, err := q.GetMemberByLofyID(ctx, identifier)
	if !errors.Is(err, ErrNotFound) || !strings.Contains(identifier, "@") {
		return m, err
	}
	return q.GetMemberByEmail(ctx, identifier)
}

const createMember = `INSERT INTO lofy_team (lofy_id, name, email, display_name, role_id, password_hash, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

// CreateMemberParams はCreateMemberの引数。
type CreateMemberParams struct {
	LofyID       string
	Name         string
	Email        sql.NullString
	DisplayName  sql.NullString
	RoleID       int32
	PasswordHash sql.NullString
	IsActive     bool
}

// CreateMember はメンバーを登録し、採番されたIDを返す。
func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, q.dialect.Rebind(createMember),
		arg.LofyID,
		arg.Name,
		arg.Email,
		arg.DisplayName,
		arg.RoleID,
		arg.PasswordHash,
		arg.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("メンバーの登録に失敗: %w", err)
	}
	return id, nil
}

const updateLastLogin = `UPDATE lofy_team SET last_login_at = ? WHERE id = ?`

// UpdateLastLogin は最終ログイン日時を更新する。
func (q *Queries) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := q.db.ExecContext(ctx, q.dialect.Rebind(updateLastLogin), at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const listMembers = `SELECT ` + memberColumns + ` FROM lofy_team ORDER BY id`

// ListMembers は全メンバーをID順に取得する。
func (q *Queries) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
