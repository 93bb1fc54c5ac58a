package models

import (
	"strings"

	"fjacquet/fintrack/internal/apperror"

	"github.com/shopspring/decimal"
)

// Row-level validation failures reported on a CandidateTransaction.
const (
	ErrInvalidDate      = "invalid date"
	ErrEmptyDescription = "empty description"
	ErrInvalidAmount    = "invalid amount"
)

// CandidateTransaction is a parsed but not yet committed row of an imported file.
type CandidateTransaction struct {
	RowNumber             int             `json:"row_number"`
	Date                  string          `json:"date"`
	Description           string          `json:"description"`
	Amount                decimal.Decimal `json:"amount"`
	Type                  TransactionType `json:"type"`
	SuggestedCategoryID   *string         `json:"suggested_category_id,omitempty"`
	SuggestedCategoryName *string         `json:"suggested_category_name,omitempty"`
	Confidence            float64         `json:"confidence"`
	AutoSelected          bool            `json:"auto_selected"`
	IsDuplicate           bool            `json:"is_duplicate"`
	DuplicateOf           *string         `json:"duplicate_of,omitempty"`
	IsValid               bool            `json:"is_valid"`
	Errors                []string        `json:"errors,omitempty"`
}

// Invalidate marks the row invalid and records reason.
func (c *CandidateTransaction) Invalidate(reason string) {
	c.IsValid = false
	c.Errors = append(c.Errors, reason)
}

// ColumnMapping maps semantic fields to source column names.
type ColumnMapping struct {
	Date        string `json:"date" mapstructure:"date"`
	Description string `json:"description" mapstructure:"description"`
	Amount      string `json:"amount" mapstructure:"amount"`
}

// Complete reports whether all three columns are set and distinct.
func (m ColumnMapping) Complete() bool {
	d, desc, a := strings.TrimSpace(m.Date), strings.TrimSpace(m.Description), strings.TrimSpace(m.Amount)
	if d == "" || desc == "" || a == "" {
		return false
	}
	return d != desc && d != a && desc != a
}

// ImportConfig holds the parameters of one import session.
type ImportConfig struct {
	AccountID     string        `json:"account_id"`
	Delimiter     rune          `json:"delimiter"`
	HasHeader     bool          `json:"has_header"`
	DateFormat    string        `json:"date_format"`
	InvertAmounts bool          `json:"invert_amounts"`
	ColumnMapping ColumnMapping `json:"column_mapping"`
}

// Validate checks the configuration before any row is processed.
func (c ImportConfig) Validate() error {
	if strings.TrimSpace(c.AccountID) == "" {
		return apperror.Invalid("account_id", "an account must be selected")
	}
	if strings.TrimSpace(c.DateFormat) == "" {
		return apperror.Invalid("date_format", "no date format selected")
	}
	if !c.ColumnMapping.Complete() {
		return apperror.Invalid("column_mapping", "date, description and amount must be mapped to distinct columns")
	}
	return nil
}
