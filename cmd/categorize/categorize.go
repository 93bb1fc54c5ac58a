// Package categorize handles the description categorization command
package categorize

import (
	"fmt"
	"strings"

	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/internal/logging"

	"github.com/spf13/cobra"
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize <description>",
	Short: "Categorize a transaction description using your rules",
	Long: `Categorize a transaction description with the keyword rules visible to the
user (their own rules first, then system rules) and, when enabled, Gemini.`,
	Args: cobra.MinimumNArgs(1),
	RunE: categorizeFunc,
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	userID, err := root.RequireUser()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := root.GetContainer(ctx)
	if err != nil {
		return err
	}

	description := strings.Join(args, " ")
	suggestion, err := app.GetEngine().Categorize(ctx, userID, description)
	if err != nil {
		return fmt.Errorf("error categorizing description: %w", err)
	}

	out := cmd.OutOrStdout()
	if !suggestion.Found() {
		fmt.Fprintln(out, "No category found")
		return nil
	}

	root.Log.Debug("Categorize command finished",
		logging.F("strategy", suggestion.Strategy),
		logging.F("confidence", suggestion.Confidence))
	fmt.Fprintf(out, "Category: %s (%s)\nConfidence: %.2f\nStrategy: %s\n",
		suggestion.CategoryName, suggestion.CategoryType, suggestion.Confidence, suggestion.Strategy)
	return nil
}
