package models

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is a persisted ledger entry. Amount is always positive; the
// sign is implied by Type.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	AccountID   string            `json:"account_id"`
	CategoryID  *string           `json:"category_id,omitempty"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description *string           `json:"description,omitempty"`
	Date        civil.Date        `json:"date"`
	ToAccountID *string           `json:"to_account_id,omitempty"`
	RecurringID *string           `json:"recurring_id,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Status      TransactionStatus `json:"status"`
}

// DescriptionText returns the description or "" when unset.
func (t Transaction) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// TransactionUpdate lists the mutable fields of a transaction. Nil fields are
// left unchanged.
type TransactionUpdate struct {
	CategoryID *string
	Status     *TransactionStatus
}
