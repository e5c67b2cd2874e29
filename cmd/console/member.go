package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lofy-app/console/internal/team"
)

func newMemberCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage console team members",
	}
	cmd.AddCommand(newMemberAddCmd(opts))
	cmd.AddCommand(newMemberListCmd(opts))
	return cmd
}

// memberAddOptions はmember addのフラグ。
type memberAddOptions struct {
	lofyID      string
	name        string
	email       string
	displayName string
	role        int32
	password    string
}

func newMemberAddCmd(opts *rootOptions) *cobra.Command {
	flags := &memberAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a team member who can log in to the console",
		Long:  "Add a team member. When --password is omitted, the password is read from the first line of stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := flags.password
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password is required (--password or stdin)")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			hash, err := team.HashPassword(password)
			if err != nil {
				return err
			}

			cfg, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := team.New(db.DB, db.Dialect).CreateMember(cmd.Context(), team.CreateMemberParams{
				LofyID:       flags.lofyID,
				Name:         flags.name,
				Email:        nullString(flags.email),
				DisplayName:  nullString(flags.displayName),
				RoleID:       flags.role,
				PasswordHash: sql.NullString{String: hash, Valid: true},
				IsActive:     true,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "member %s added (id=%d)\n", flags.lofyID, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.lofyID, "lofy-id", "", "Lofy ID used to log in")
	cmd.Flags().StringVar(&flags.name, "name", "", "member name")
	cmd.Flags().StringVar(&flags.email, "email", "", "email address (optional)")
	cmd.Flags().StringVar(&flags.displayName, "display-name", "", "display name (optional)")
	cmd.Flags().Int32Var(&flags.role, "role", 0, "role id")
	cmd.Flags().StringVar(&flags.password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("lofy-id")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newMemberListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List team members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			members, err := team.New(db.DB, db.Dialect).ListMembers(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLOFY ID\tNAME\tEMAIL\tROLE\tACTIVE\tLAST LOGIN")
			for _, m := range members {
				lastLogin := "-"
				if m.LastLoginAt.Valid {
					lastLogin = m.LastLoginAt.Time.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%t\t%s\n",
					m.ID, m.LofyID, m.Label(), orDash(m.Email), m.RoleID, m.IsActive, lastLogin)
			}
			return w.Flush()
		},
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func orDash(s sql.NullString) string {
	if !s.Valid || s.String == "" {
		return "-"
	}
	return s.String
}
