// Package rules manages system categorization rules
package rules

import (
	"fmt"

	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/internal/categorizer"
	"fjacquet/fintrack/internal/store"

	"github.com/spf13/cobra"
)

// Cmd represents the rules command
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage system categorization rules",
}

var loadCmd = &cobra.Command{
	Use:   "load <rules.csv>",
	Short: "Load system rules from a CSV file",
	Long: `Load system rules from a CSV file with category, pattern and priority
columns. Patterns hold keywords separated by "|". Rows naming an unknown
category are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: loadFunc,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules visible to the user in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  listFunc,
}

func init() {
	Cmd.AddCommand(loadCmd)
	Cmd.AddCommand(listCmd)
}

func loadFunc(cmd *cobra.Command, args []string) error {
	records, err := store.LoadRulesFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := root.GetContainer(ctx)
	if err != nil {
		return err
	}

	result, err := app.GetSeeder().LoadRules(ctx, records)
	if err != nil {
		return fmt.Errorf("error loading rules: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rules: %d\nSkipped: %d\n", result.Rules, result.Skipped)
	return nil
}

func listFunc(cmd *cobra.Command, args []string) error {
	userID, err := root.RequireUser()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := root.GetContainer(ctx)
	if err != nil {
		return err
	}

	rules, err := app.GetStore().FindCategorizationRules(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading rules: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, r := range categorizer.SortRules(rules) {
		owner := "system"
		if !r.IsSystem() {
			owner = "user"
		}
		fmt.Fprintf(out, "%-6s %4d  %-30s %s\n", owner, r.Priority, r.Pattern, r.CategoryName)
	}
	return nil
}
