// Package categorizer suggests categories for transaction descriptions and
// learns new rules from user corrections.
//
// Suggestions come from an ordered list of strategies:
//  1. priority-ordered keyword rules (user rules before system rules)
//  2. an optional AI fallback using the Gemini model
package categorizer

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"
)

// Engine categorizes descriptions for a user from the rules and categories in the store.
type Engine struct {
	store  store.Store
	ai     CategorizationStrategy
	logger logging.Logger
}

// NewEngine creates an Engine. ai may be nil to disable the AI fallback.
func NewEngine(s store.Store, ai CategorizationStrategy, logger logging.Logger) *Engine {
	return &Engine{store: s, ai: ai, logger: logging.OrDefault(logger)}
}

// Categorize returns the best suggestion for description. It reads the
// user's rules and categories on every call; use Snapshot to categorize many
// descriptions against one read.
func (e *Engine) Categorize(ctx context.Context, userID, description string) (Suggestion, error) {
	snap, err := e.Snapshot(ctx, userID)
	if err != nil {
		return Suggestion{}, err
	}
	return snap.Categorize(ctx, userID, description)
}

// Snapshot loads the user's rules and visible categories once.
func (e *Engine) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	rules, err := e.store.FindCategorizationRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading categorization rules: %w", err)
	}
	categories, err := e.store.FindCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading categories: %w", err)
	}

	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	ruleStrategy := NewRuleStrategy(rules)
	strategies := []CategorizationStrategy{ruleStrategy}
	if e.ai != nil {
		strategies = append(strategies, e.ai)
	}
	e.logger.Debug("Categorization snapshot loaded",
		logging.F(logging.FieldUserID, userID),
		logging.F("rules", ruleStrategy.Len()),
		logging.F("categories", len(categories)))

	return &Snapshot{
		userID:     userID,
		categories: categories,
		byID:       byID,
		strategies: strategies,
		logger:     e.logger,
	}, nil
}

// Snapshot categorizes descriptions against rules and categories read at
// one point in time. It is safe for concurrent use.
type Snapshot struct {
	userID     string
	categories []models.Category
	byID       map[string]models.Category
	strategies []CategorizationStrategy
	logger     logging.Logger
}

// Categorize runs the strategies in order and returns the first hit.
// Suggestions naming a category the user cannot see are discarded.
func (s *Snapshot) Categorize(ctx context.Context, userID, description string) (Suggestion, error) {
	if userID != s.userID {
		return Suggestion{}, fmt.Errorf("snapshot belongs to another user")
	}
	if strings.TrimSpace(description) == "" {
		return Suggestion{}, nil
	}

	in := Input{UserID: userID, Description: description, Categories: s.categories}
	for _, strategy := range s.strategies {
		if err := ctx.Err(); err != nil {
			return Suggestion{}, err
		}

		suggestion, ok, err := strategy.Categorize(ctx, in)
		if err != nil {
			s.logger.WithError(err).Warn("Categorization strategy failed",
				logging.F(logging.FieldStrategy, strategy.Name()))
			continue
		}
		if !ok || suggestion.CategoryID == nil {
			continue
		}

		cat, visible := s.byID[*suggestion.CategoryID]
		if !visible {
			s.logger.Warn("Discarding suggestion for unknown category",
				logging.F(logging.FieldStrategy, strategy.Name()),
				logging.F(logging.FieldCategoryID, *suggestion.CategoryID))
			continue
		}
		suggestion.CategoryName, suggestion.CategoryType = cat.Name, cat.Type

		s.logger.Debug("Description categorized",
			logging.F(logging.FieldStrategy, suggestion.Strategy),
			logging.F(logging.FieldCategoryID, cat.ID),
			logging.F(logging.FieldConfidence, suggestion.Confidence))
		return suggestion, nil
	}
	return Suggestion{}, nil
}

// Categories returns the categories visible to the snapshot's user.
func (s *Snapshot) Categories() []models.Category {
	return s.categories
}
