// Package learn teaches the categorizer from a confirmed categorization
package learn

import (
	"fmt"

	"fjacquet/fintrack/cmd/root"

	"github.com/spf13/cobra"
)

var (
	description string
	categoryID  string
)

// Cmd represents the learn command
var Cmd = &cobra.Command{
	Use:   "learn",
	Short: "Learn a categorization rule from a description",
	Long: `Derive a keyword pattern from a transaction description and store it as a
personal rule pointing at the given category. Learning the same description
again updates the existing rule.`,
	RunE: learnFunc,
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "d", "", "Transaction description to learn from")
	Cmd.Flags().StringVarP(&categoryID, "category", "c", "", "Category the description belongs to")
	_ = Cmd.MarkFlagRequired("description")
	_ = Cmd.MarkFlagRequired("category")
}

func learnFunc(cmd *cobra.Command, args []string) error {
	userID, err := root.RequireUser()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := root.GetContainer(ctx)
	if err != nil {
		return err
	}

	rule, err := app.GetLearner().Learn(ctx, userID, description, categoryID)
	if err != nil {
		return fmt.Errorf("error learning rule: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rule %s: %q -> %s\n", rule.ID, rule.Pattern, rule.CategoryID)
	return nil
}
