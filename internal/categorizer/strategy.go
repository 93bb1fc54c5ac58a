package categorizer

import (
	"context"

	"fjacquet/fintrack/internal/models"
)

// Input is what a strategy sees of one categorization request.
type Input struct {
	UserID      string
	Description string
	// Categories visible to the user.
	Categories []models.Category
}

// Suggestion is the outcome of a categorization request. CategoryID is nil
// and Confidence is 0 when nothing matched.
type Suggestion struct {
	CategoryID   *string
	CategoryName string
	CategoryType models.TransactionType
	Confidence   float64
	Strategy     string
}

// Found reports whether the suggestion names a category.
func (s Suggestion) Found() bool {
	return s.CategoryID != nil
}

// AutoSelect reports whether the suggestion is strong enough to pre-select.
func (s Suggestion) AutoSelect(threshold float64) bool {
	return s.Found() && s.Confidence >= threshold
}

// CategorizationStrategy defines one way of categorizing a description.
// Strategies are tried in order; the first hit wins.
type CategorizationStrategy interface {
	// Categorize returns the suggestion, whether it matched, and any error.
	Categorize(ctx context.Context, in Input) (Suggestion, bool, error)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}
