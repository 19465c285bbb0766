package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"invoicing/internal/db"
	"invoicing/internal/domain"
	"invoicing/internal/scope"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gdb, err := connect()
			if err != nil {
				return err
			}
			return db.Migrate(gdb)
		},
	}
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Persist OVERDUE on sent invoices past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := connect()
			if err != nil {
				return err
			}
			n, err := services(cfg, gdb).Sweeper.Run(cmd.Context(), "cli")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) marked overdue\n", n)
			return nil
		},
	}
}

func newPromoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Change the role of an account",
		Example: `  # Grant admin access
  invoicectl promote ops@example.com

  # Revoke it again
  invoicectl promote ops@example.com --role USER`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roleFlag, _ := cmd.Flags().GetString("role")
			role := domain.Role(strings.ToUpper(roleFlag))
			if role != domain.RoleAdmin && role != domain.RoleUser {
				return fmt.Errorf("role must be USER or ADMIN, got %q", roleFlag)
			}
			cfg, gdb, err := connect()
			if err != nil {
				return err
			}
			users := services(cfg, gdb).Users
			user, err := users.ByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			user.Role = role
			if err := users.Update(cmd.Context(), user, "role"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().String("role", string(domain.RoleAdmin), "Role to assign (USER or ADMIN)")
	return cmd
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <invoice-id> <file>",
		Short: "Write an invoice PDF to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid invoice id %q", args[0])
			}
			cfg, gdb, err := connect()
			if err != nil {
				return err
			}
			name, data, err := services(cfg, gdb).Invoices.PDF(cmd.Context(), scope.Admin(0), uint(id))
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s to %s (%d bytes)\n", name, args[1], len(data))
			return nil
		},
	}
}
