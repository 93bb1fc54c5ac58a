package categorizer

import (
	"context"
	"sort"
	"strings"

	"fjacquet/fintrack/internal/models"
)

// SortRules returns the active rules in evaluation order: user rules before
// system rules regardless of priority, then descending priority. Ties keep
// their input order.
func SortRules(rules []models.CategorizationRule) []models.CategorizationRule {
	sorted := make([]models.CategorizationRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsSystem() != b.IsSystem() {
			return !a.IsSystem()
		}
		return a.Priority > b.Priority
	})
	return sorted
}

type compiledRule struct {
	rule         models.CategorizationRule
	alternatives []string
}

// RuleStrategy matches descriptions against '|'-delimited keyword rules.
// Alternatives are plain substrings, never regular expressions.
type RuleStrategy struct {
	rules []compiledRule
}

// NewRuleStrategy sorts and compiles rules.
func NewRuleStrategy(rules []models.CategorizationRule) *RuleStrategy {
	sorted := SortRules(rules)
	s := &RuleStrategy{rules: make([]compiledRule, 0, len(sorted))}
	for _, r := range sorted {
		alts := r.Alternatives()
		if len(alts) == 0 {
			continue
		}
		s.rules = append(s.rules, compiledRule{rule: r, alternatives: alts})
	}
	return s
}

// Name returns the name of this strategy for logging and debugging.
func (s *RuleStrategy) Name() string {
	return StrategyRule
}

// Match returns the first rule with an alternative contained in description.
func (s *RuleStrategy) Match(description string) (models.CategorizationRule, bool) {
	normalized := strings.ToLower(description)
	for _, cr := range s.rules {
		for _, alt := range cr.alternatives {
			if strings.Contains(normalized, alt) {
				return cr.rule, true
			}
		}
	}
	return models.CategorizationRule{}, false
}

// Categorize implements CategorizationStrategy.
func (s *RuleStrategy) Categorize(_ context.Context, in Input) (Suggestion, bool, error) {
	rule, ok := s.Match(in.Description)
	if !ok {
		return Suggestion{}, false, nil
	}
	id := rule.CategoryID
	return Suggestion{
		CategoryID:   &id,
		CategoryName: rule.CategoryName,
		CategoryType: rule.CategoryType,
		Confidence:   DirectMatchConfidence,
		Strategy:     s.Name(),
	}, true, nil
}

// Len returns the number of compiled rules.
func (s *RuleStrategy) Len() int {
	return len(s.rules)
}
