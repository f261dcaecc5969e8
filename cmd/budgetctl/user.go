package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetapp/internal/services"
)

func userCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(
		setAdminCmd(open, "promote", "Grant administrator rights", true),
		setAdminCmd(open, "demote", "Revoke administrator rights", false),
	)
	return cmd
}

func setAdminCmd(open opener, use, short string, isAdmin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, release, err := open(ctx)
			if err != nil {
				return err
			}
			defer release()

			user, err := services.NewUserService(db).SetAdmin(ctx, args[0], isAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is_admin=%t\n", user.Username, user.IsAdmin)
			return nil
		},
	}
}
