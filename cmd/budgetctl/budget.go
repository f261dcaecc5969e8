package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetapp/internal/access"
	"budgetapp/internal/models"
	"budgetapp/internal/services"
)

func budgetCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage budgets",
	}
	cmd.AddCommand(copyBudgetCmd(open))
	return cmd
}

func copyBudgetCmd(open opener) *cobra.Command {
	var (
		username string
		month    string
		year     int
		source   string
	)
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Roll a budget over into another month on behalf of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, ok := models.ParseMonth(month)
			if !ok {
				return fmt.Errorf("invalid month %q", month)
			}

			ctx := cmd.Context()
			db, release, err := open(ctx)
			if err != nil {
				return err
			}
			defer release()

			user, err := services.NewUserService(db).GetUserByUsername(ctx, username)
			if err != nil {
				return err
			}
			detail, err := services.NewBudgetService(db).CopyBudget(ctx, access.Principal{UserID: user.ID}, services.CopyBudgetInput{
				SourceID:    source,
				TargetMonth: target,
				TargetYear:  year,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "budget %s %s %d: %d groups, %d categories\n",
				detail.Budget.ID, detail.Budget.Month, detail.Budget.Year, len(detail.Groups), len(detail.Categories))
			if detail.PreviousID != nil {
				fmt.Fprintf(out, "previous %s\n", *detail.PreviousID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "owner of the target budget")
	cmd.Flags().StringVar(&month, "month", "", "target month code, e.g. FEB")
	cmd.Flags().IntVar(&year, "year", 0, "target year")
	cmd.Flags().StringVar(&source, "source", "", "source budget id (defaults to the previous month)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}
