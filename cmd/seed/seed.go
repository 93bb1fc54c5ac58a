// Package seed loads system categories from a YAML file
package seed

import (
	"fmt"

	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/internal/store"

	"github.com/spf13/cobra"
)

// Cmd represents the seed command
var Cmd = &cobra.Command{
	Use:   "seed <categories.yaml>",
	Short: "Seed system categories and their keyword rules",
	Long: `Create the system categories listed in a YAML file, together with one
keyword rule per category built from its keywords. Categories that already
exist are left untouched, so seeding twice is safe.`,
	Args: cobra.ExactArgs(1),
	RunE: seedFunc,
}

func seedFunc(cmd *cobra.Command, args []string) error {
	categories, err := store.LoadCategoriesFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := root.GetContainer(ctx)
	if err != nil {
		return err
	}

	result, err := app.GetSeeder().SeedCategories(ctx, categories)
	if err != nil {
		return fmt.Errorf("error seeding categories: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Categories: %d\nRules: %d\nSkipped: %d\n", result.Categories, result.Rules, result.Skipped)
	return nil
}
