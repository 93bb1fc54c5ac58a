// Package store defines the persistence contract of the import and
// scheduling core, with a PostgreSQL implementation and an in-memory one.
package store

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/models"

	"cloud.google.com/go/civil"
)

// Store is the relational data store consumed by the core. Lookups of a
// single missing record return an error matching apperror.ErrNotFound.
type Store interface {
	GetAccount(ctx context.Context, id string) (models.Account, error)

	// FindCategories returns the system categories plus those owned by userID.
	FindCategories(ctx context.Context, userID string) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (models.Category, error)
	InsertCategories(ctx context.Context, categories []models.Category) ([]string, error)

	// FindTransactions returns the account's transactions dated within [from, to].
	FindTransactions(ctx context.Context, accountID string, from, to civil.Date) ([]models.Transaction, error)
	// InsertTransactions inserts all transactions or none. Empty IDs are assigned.
	InsertTransactions(ctx context.Context, txs []models.Transaction) ([]string, error)
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, update models.TransactionUpdate) error

	// FindCategorizationRules returns the active rules of userID and the
	// active system rules, with the target category's name and type.
	FindCategorizationRules(ctx context.Context, userID string) ([]models.CategorizationRule, error)
	// FindRuleByPattern returns the user's rule with exactly pattern, or nil.
	FindRuleByPattern(ctx context.Context, userID, pattern string) (*models.CategorizationRule, error)
	// UpsertCategorizationRule inserts rule when its ID is empty and replaces it otherwise.
	UpsertCategorizationRule(ctx context.Context, rule models.CategorizationRule) (models.CategorizationRule, error)

	FindRecurringDefinitions(ctx context.Context, userID string, filter models.RecurringFilter) ([]models.RecurringDefinition, error)
	GetRecurringDefinition(ctx context.Context, id string) (models.RecurringDefinition, error)
	InsertRecurringDefinition(ctx context.Context, def models.RecurringDefinition) (string, error)
	UpdateRecurringDefinition(ctx context.Context, id string, update models.RecurringUpdate) error

	// Migrate creates the schema if needed.
	Migrate(ctx context.Context) error
	Close() error
}

func notFound(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, apperror.ErrNotFound)
}

// ownership converts a lookup result into an AuthorizationError when the
// record is missing or owned by someone else.
func ownership(resource, id, owner, userID string, err error) error {
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized(resource, id)
		}
		return err
	}
	if owner != userID {
		return apperror.Unauthorized(resource, id)
	}
	return nil
}

// OwnedAccount loads an account and verifies it belongs to userID.
func OwnedAccount(ctx context.Context, s Store, userID, accountID string) (models.Account, error) {
	acc, err := s.GetAccount(ctx, accountID)
	if err := ownership("account", accountID, acc.UserID, userID, err); err != nil {
		return models.Account{}, err
	}
	return acc, nil
}

// OwnedTransaction loads a transaction and verifies it belongs to userID.
func OwnedTransaction(ctx context.Context, s Store, userID, id string) (models.Transaction, error) {
	tx, err := s.GetTransaction(ctx, id)
	if err := ownership("transaction", id, tx.UserID, userID, err); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// OwnedRecurringDefinition loads a recurring definition and verifies it belongs to userID.
func OwnedRecurringDefinition(ctx context.Context, s Store, userID, id string) (models.RecurringDefinition, error) {
	def, err := s.GetRecurringDefinition(ctx, id)
	if err := ownership("recurring definition", id, def.UserID, userID, err); err != nil {
		return models.RecurringDefinition{}, err
	}
	return def, nil
}

// VisibleCategory loads a category and verifies userID may reference it.
func VisibleCategory(ctx context.Context, s Store, userID, id string) (models.Category, error) {
	cat, err := s.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return models.Category{}, apperror.Unauthorized("category", id)
		}
		return models.Category{}, err
	}
	if !cat.VisibleTo(userID) {
		return models.Category{}, apperror.Unauthorized("category", id)
	}
	return cat, nil
}
