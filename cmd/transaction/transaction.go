// Package transaction groups the commands acting on stored transactions
package transaction

import (
	"fmt"
	"io"

	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/internal/models"

	"github.com/spf13/cobra"
)

// Cmd represents the transaction command
var Cmd = &cobra.Command{
	Use:   "transaction",
	Short: "Recategorize or confirm stored transactions",
}

var setCategoryCmd = &cobra.Command{
	Use:   "set-category <transaction-id> <category-id>",
	Short: "Change the category of a transaction",
	Long: `Change the category of a transaction. When auto-learning is enabled the
description is turned into a personal rule so similar rows are categorized
the same way on the next import.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := root.RequireUser()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		app, err := root.GetContainer(ctx)
		if err != nil {
			return err
		}
		tx, err := app.GetLedger().ChangeCategory(ctx, userID, args[0], args[1])
		if tx.ID == "" && err != nil {
			return err
		}
		printTransaction(cmd.OutOrStdout(), tx)
		return err
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <transaction-id>",
	Short: "Mark a pending transaction as confirmed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := root.RequireUser()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		app, err := root.GetContainer(ctx)
		if err != nil {
			return err
		}
		tx, err := app.GetLedger().Confirm(ctx, userID, args[0])
		if err != nil {
			return err
		}
		printTransaction(cmd.OutOrStdout(), tx)
		return nil
	},
}

func init() {
	Cmd.AddCommand(setCategoryCmd)
	Cmd.AddCommand(confirmCmd)
}

func printTransaction(w io.Writer, tx models.Transaction) {
	category := "-"
	if tx.CategoryID != nil {
		category = *tx.CategoryID
	}
	fmt.Fprintf(w, "%s  %s  %s %s  %s  category=%s  status=%s\n",
		tx.ID, tx.Date, tx.Type, tx.Amount.StringFixed(2), tx.DescriptionText(), category, tx.Status)
}
