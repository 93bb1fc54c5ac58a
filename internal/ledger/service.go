// Package ledger holds the user-facing edits of stored transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/categorizer"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"
)

// Service edits transactions on behalf of their owner.
type Service struct {
	store   store.Store
	learner *categorizer.Learner
	logger  logging.Logger
}

// NewService creates a Service. learner may be nil to disable rule learning.
func NewService(s store.Store, learner *categorizer.Learner, logger logging.Logger) *Service {
	return &Service{store: s, learner: learner, logger: logging.OrDefault(logger)}
}

// ChangeCategory assigns categoryID to a transaction owned by userID. When
// the transaction has a description, a rule is learned from it so future
// imports pick the same category. A description that yields no usable
// pattern does not fail the change.
func (s *Service) ChangeCategory(ctx context.Context, userID, transactionID, categoryID string) (models.Transaction, error) {
	tx, err := store.OwnedTransaction(ctx, s.store, userID, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	if _, err := store.VisibleCategory(ctx, s.store, userID, categoryID); err != nil {
		return models.Transaction{}, err
	}

	if err := s.store.UpdateTransaction(ctx, transactionID, models.TransactionUpdate{CategoryID: &categoryID}); err != nil {
		return models.Transaction{}, fmt.Errorf("error updating transaction: %w", err)
	}
	tx.CategoryID = &categoryID

	description := strings.TrimSpace(tx.DescriptionText())
	if s.learner == nil || description == "" {
		return tx, nil
	}
	if _, err := s.learner.Learn(ctx, userID, description, categoryID); err != nil {
		if !errors.Is(err, apperror.ErrInvalidInput) {
			return tx, fmt.Errorf("category changed but rule not learned: %w", err)
		}
		s.logger.Debug("No rule learned from description",
			logging.F(logging.FieldTransaction, transactionID))
	}
	return tx, nil
}

// Confirm marks a pending transaction owned by userID as confirmed.
// Confirming an already confirmed transaction is a no-op.
func (s *Service) Confirm(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	tx, err := store.OwnedTransaction(ctx, s.store, userID, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	if tx.Status == models.StatusConfirmed {
		return tx, nil
	}

	status := models.StatusConfirmed
	if err := s.store.UpdateTransaction(ctx, transactionID, models.TransactionUpdate{Status: &status}); err != nil {
		return models.Transaction{}, fmt.Errorf("error confirming transaction: %w", err)
	}
	tx.Status = status

	s.logger.Info("Transaction confirmed",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldTransaction, transactionID))
	return tx, nil
}
