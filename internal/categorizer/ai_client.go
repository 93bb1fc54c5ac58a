package categorizer

import "context"

// AIClient asks a language model to pick a category for a description.
// This abstraction allows the strategy to be tested without external calls.
type AIClient interface {
	// SuggestCategory returns one of categories, or "" when the model has no answer.
	SuggestCategory(ctx context.Context, description string, categories []string) (string, error)
}
