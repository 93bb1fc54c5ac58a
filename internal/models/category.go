package models

import "strings"

// Category is a transaction category. System categories have no owner and
// cannot be modified by users.
type Category struct {
	ID       string          `json:"id"`
	UserID   *string         `json:"user_id,omitempty"`
	Name     string          `json:"name"`
	Icon     string          `json:"icon,omitempty"`
	Color    string          `json:"color,omitempty"`
	Type     TransactionType `json:"type"`
	ParentID *string         `json:"parent_id,omitempty"`
	IsSystem bool            `json:"is_system"`
}

// VisibleTo reports whether userID may reference the category.
func (c Category) VisibleTo(userID string) bool {
	return c.UserID == nil || *c.UserID == userID
}

// CategorizationRule maps description keywords to a category. Pattern is a
// lower-cased, '|'-delimited list of alternatives. CategoryName and
// CategoryType are denormalized from the target category on read.
type CategorizationRule struct {
	ID           string          `json:"id"`
	UserID       *string         `json:"user_id,omitempty"`
	CategoryID   string          `json:"category_id"`
	Pattern      string          `json:"pattern"`
	Priority     int             `json:"priority"`
	IsActive     bool            `json:"is_active"`
	CategoryName string          `json:"category_name,omitempty"`
	CategoryType TransactionType `json:"category_type,omitempty"`
}

// IsSystem reports whether the rule is shared by all users.
func (r CategorizationRule) IsSystem() bool {
	return r.UserID == nil
}

// Alternatives splits the pattern into its lower-cased, non-empty keywords.
func (r CategorizationRule) Alternatives() []string {
	var out []string
	for _, alt := range strings.Split(r.Pattern, "|") {
		if alt = strings.ToLower(strings.TrimSpace(alt)); alt != "" {
			out = append(out, alt)
		}
	}
	return out
}

// JoinPattern builds a rule pattern from keywords.
func JoinPattern(keywords []string) string {
	return strings.Join(CategorizationRule{Pattern: strings.Join(keywords, "|")}.Alternatives(), "|")
}

// CategoryConfig is one entry of a categories seed file.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Icon     string   `yaml:"icon"`
	Color    string   `yaml:"color"`
	Keywords []string `yaml:"keywords"`
	Priority int      `yaml:"priority"`
}

// CategoriesConfig is the top-level structure of a categories seed file.
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// RuleRecord is one row of a rules CSV file.
type RuleRecord struct {
	Category string `csv:"category"`
	Pattern  string `csv:"pattern"`
	Priority int    `csv:"priority"`
}
