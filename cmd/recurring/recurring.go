// Package recurring groups the recurring transaction commands
package recurring

import (
	"fmt"
	"io"

	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/internal/models"

	"github.com/spf13/cobra"
)

var (
	active bool
	days   int
)

// Cmd represents the recurring command
var Cmd = &cobra.Command{
	Use:   "recurring",
	Short: "Process and inspect recurring transactions",
}

var processCmd = &cobra.Command{
	Use:   "process <definition-id>",
	Short: "Materialize the next occurrence of a recurring definition",
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
		occ, err := app.GetScheduler().Process(ctx, userID, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created transaction %s dated %s\nNext occurrence: %s\n", occ.TransactionID, occ.Date, occ.NextOccurrence)
		if occ.Deactivated {
			fmt.Fprintln(out, "Definition reached its end date and was deactivated")
		}
		return nil
	},
}

var processAllCmd = &cobra.Command{
	Use:   "process-all",
	Short: "Materialize every recurring definition that is due today",
	Long: `Materialize one occurrence of every active definition due on or before
today. A definition that fails is reported and retried on the next run.`,
	Args: cobra.NoArgs,
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
		result, err := app.GetScheduler().ProcessAllDue(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Processed: %d\nFailed: %d\n", result.Processed, result.Failed)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <definition-id>",
	Short: "Activate or deactivate a recurring definition",
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
		if err := app.GetScheduler().SetActive(ctx, userID, args[0], active); err != nil {
			return err
		}
		state := "inactive"
		if active {
			state = "active"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Definition %s is now %s\n", args[0], state)
		return nil
	},
}

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List active definitions due within the next days",
	Args:  cobra.NoArgs,
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
		defs, err := app.GetScheduler().Upcoming(ctx, userID, days)
		if err != nil {
			return err
		}
		printDefinitions(cmd.OutOrStdout(), defs)
		return nil
	},
}

func init() {
	toggleCmd.Flags().BoolVar(&active, "active", true, "Whether the definition should be active")
	upcomingCmd.Flags().IntVarP(&days, "days", "n", 30, "Number of days to look ahead")

	Cmd.AddCommand(processCmd)
	Cmd.AddCommand(processAllCmd)
	Cmd.AddCommand(toggleCmd)
	Cmd.AddCommand(upcomingCmd)
}

func printDefinitions(w io.Writer, defs []models.RecurringDefinition) {
	if len(defs) == 0 {
		fmt.Fprintln(w, "No upcoming recurring transactions")
		return
	}
	for _, d := range defs {
		fmt.Fprintf(w, "%s  %s  %s %s  %s  %s\n",
			d.NextOccurrence, d.ID, d.Type, d.Amount.StringFixed(2), d.Frequency, d.Description)
	}
}
