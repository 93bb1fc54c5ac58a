package models

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// RecurringDefinition is a template for a transaction that repeats on a fixed
// schedule. NextOccurrence is the next date the definition is due.
type RecurringDefinition struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	AccountID      string          `json:"account_id"`
	ToAccountID    *string         `json:"to_account_id,omitempty"`
	CategoryID     *string         `json:"category_id,omitempty"`
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	Frequency      Frequency       `json:"frequency"`
	StartDate      civil.Date      `json:"start_date"`
	EndDate        *civil.Date     `json:"end_date,omitempty"`
	NextOccurrence civil.Date      `json:"next_occurrence"`
	IsActive       bool            `json:"is_active"`
}

// IsDue reports whether the definition is active and due on or before today.
func (d RecurringDefinition) IsDue(today civil.Date) bool {
	return d.IsActive && !d.NextOccurrence.After(today)
}

// RecurringFilter narrows FindRecurringDefinitions. Zero values do not filter.
type RecurringFilter struct {
	ActiveOnly    bool
	DueOnOrBefore *civil.Date
}

// RecurringUpdate lists the mutable fields of a recurring definition.
type RecurringUpdate struct {
	NextOccurrence *civil.Date
	IsActive       *bool
}
