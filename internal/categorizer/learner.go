package categorizer

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"
)

// BuildPattern derives a rule pattern from a description: lower-cased
// letters only, up to the first three words of at least three letters,
// joined with '|'.
func BuildPattern(description string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, description)

	tokens := make([]string, 0, MaxPatternTokens)
	for _, tok := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(tok) < MinTokenLength {
			continue
		}
		tokens = append(tokens, tok)
		if len(tokens) == MaxPatternTokens {
			break
		}
	}

	pattern := strings.Join(tokens, "|")
	if utf8.RuneCountInString(pattern) < MinPatternLength {
		return "", fmt.Errorf("description %q yields no usable pattern: %w", description, apperror.ErrInvalidInput)
	}
	return pattern, nil
}

// Learner turns manual category corrections into user rules.
type Learner struct {
	store  store.Store
	logger logging.Logger
}

// NewLearner creates a Learner.
func NewLearner(s store.Store, logger logging.Logger) *Learner {
	return &Learner{store: s, logger: logging.OrDefault(logger)}
}

// Learn records that description belongs to categoryID for userID. An
// existing user rule with the same pattern is retargeted and bumped to
// LearnedRulePriority; otherwise a new active rule is created.
func (l *Learner) Learn(ctx context.Context, userID, description, categoryID string) (models.CategorizationRule, error) {
	pattern, err := BuildPattern(description)
	if err != nil {
		return models.CategorizationRule{}, err
	}

	if _, err := store.VisibleCategory(ctx, l.store, userID, categoryID); err != nil {
		return models.CategorizationRule{}, err
	}

	rule, err := l.store.FindRuleByPattern(ctx, userID, pattern)
	if err != nil {
		return models.CategorizationRule{}, fmt.Errorf("error looking up rule: %w", err)
	}
	if rule == nil {
		owner := userID
		rule = &models.CategorizationRule{UserID: &owner, Pattern: pattern}
	}
	rule.CategoryID = categoryID
	rule.Priority = LearnedRulePriority
	rule.IsActive = true

	saved, err := l.store.UpsertCategorizationRule(ctx, *rule)
	if err != nil {
		return models.CategorizationRule{}, fmt.Errorf("error saving rule: %w", err)
	}

	l.logger.Info("Learned categorization rule",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldRuleID, saved.ID),
		logging.F(logging.FieldPattern, pattern),
		logging.F(logging.FieldCategoryID, categoryID))
	return saved, nil
}
