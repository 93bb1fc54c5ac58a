// Package recurring materializes due recurring definitions into pending
// transactions and advances their schedule.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/dateutils"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"

	"cloud.google.com/go/civil"
)

// Advance returns date moved forward by one period of freq. Month and
// year steps clamp to the last day of a shorter target month.
func Advance(date civil.Date, freq models.Frequency) (civil.Date, error) {
	switch freq {
	case models.FrequencyDaily:
		return date.AddDays(1), nil
	case models.FrequencyWeekly:
		return date.AddDays(7), nil
	case models.FrequencyMonthly:
		return dateutils.AddMonths(date, 1), nil
	case models.FrequencyYearly:
		return dateutils.AddYears(date, 1), nil
	default:
		return civil.Date{}, fmt.Errorf("unknown frequency %q: %w", freq, apperror.ErrInvalidInput)
	}
}

// Occurrence describes one processed definition.
type Occurrence struct {
	DefinitionID   string     `json:"definition_id"`
	TransactionID  string     `json:"transaction_id"`
	Date           civil.Date `json:"date"`
	NextOccurrence civil.Date `json:"next_occurrence"`
	Deactivated    bool       `json:"deactivated"`
}

// ProcessResult aggregates a ProcessAllDue run.
type ProcessResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Scheduler processes recurring definitions on demand.
type Scheduler struct {
	store    store.Store
	now      func() time.Time
	location *time.Location
	logger   logging.Logger
}

// NewScheduler creates a Scheduler. A nil clock uses time.Now; a nil
// location uses UTC when deciding what "today" is.
func NewScheduler(s store.Store, clock func() time.Time, location *time.Location, logger logging.Logger) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{store: s, now: clock, location: location, logger: logging.OrDefault(logger)}
}

// Today returns the scheduler's current calendar date.
func (s *Scheduler) Today() civil.Date {
	return dateutils.Today(s.now(), s.location)
}

// Process materializes the next occurrence of a definition owned by userID
// and advances it. The transaction is inserted before the definition is
// touched; if the insert fails the definition is left as it was. When the
// insert succeeded but the advance did not, a retry reuses that transaction.
func (s *Scheduler) Process(ctx context.Context, userID, definitionID string) (Occurrence, error) {
	def, err := store.OwnedRecurringDefinition(ctx, s.store, userID, definitionID)
	if err != nil {
		return Occurrence{}, err
	}
	return s.process(ctx, def)
}

func (s *Scheduler) process(ctx context.Context, def models.RecurringDefinition) (Occurrence, error) {
	if !def.IsActive {
		return Occurrence{}, apperror.Invalid("recurring definition", "definition "+def.ID+" is inactive")
	}
	next, err := Advance(def.NextOccurrence, def.Frequency)
	if err != nil {
		return Occurrence{}, err
	}

	txID, err := s.materializeOnce(ctx, def)
	if err != nil {
		return Occurrence{}, &apperror.RecurrenceAdvanceError{DefinitionID: def.ID, Err: err}
	}

	occ := Occurrence{DefinitionID: def.ID, TransactionID: txID, Date: def.NextOccurrence, NextOccurrence: next}

	update := models.RecurringUpdate{NextOccurrence: &next}
	if def.EndDate != nil && next.After(*def.EndDate) {
		inactive := false
		update.IsActive = &inactive
		occ.Deactivated = true
	}
	if err := s.store.UpdateRecurringDefinition(ctx, def.ID, update); err != nil {
		return occ, fmt.Errorf("transaction %s inserted but definition %s not advanced: %w", occ.TransactionID, def.ID, err)
	}

	fields := []logging.Field{
		logging.F(logging.FieldRecurringID, def.ID),
		logging.F(logging.FieldTransaction, occ.TransactionID),
		logging.F(logging.FieldFrequency, string(def.Frequency)),
		logging.F(logging.FieldNextDate, next.String()),
	}
	if occ.Deactivated {
		s.logger.Info("Recurring definition reached its end date", fields...)
	} else {
		s.logger.Debug("Recurring definition processed", fields...)
	}
	return occ, nil
}

// materializeOnce inserts the transaction for the due occurrence of def. An
// occurrence already materialized by an earlier pass whose pointer update
// failed is reused instead of inserted again.
func (s *Scheduler) materializeOnce(ctx context.Context, def models.RecurringDefinition) (string, error) {
	existing, err := s.store.FindTransactions(ctx, def.AccountID, def.NextOccurrence, def.NextOccurrence)
	if err != nil {
		return "", fmt.Errorf("error checking existing occurrence: %w", err)
	}
	for _, tx := range existing {
		if tx.RecurringID != nil && *tx.RecurringID == def.ID && tx.Date == def.NextOccurrence {
			s.logger.Info("Reusing previously materialized occurrence",
				logging.F(logging.FieldRecurringID, def.ID),
				logging.F(logging.FieldTransaction, tx.ID))
			return tx.ID, nil
		}
	}

	ids, err := s.store.InsertTransactions(ctx, []models.Transaction{materialize(def)})
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

func materialize(def models.RecurringDefinition) models.Transaction {
	id := def.ID
	tx := models.Transaction{
		UserID:      def.UserID,
		AccountID:   def.AccountID,
		CategoryID:  copyString(def.CategoryID),
		Type:        def.Type,
		Amount:      def.Amount,
		Date:        def.NextOccurrence,
		RecurringID: &id,
		Tags:        []string{models.TagRecurring},
		Status:      models.StatusPending,
	}
	if def.Description != "" {
		desc := def.Description
		tx.Description = &desc
	}
	if def.Type == models.TypeTransfer {
		tx.ToAccountID = copyString(def.ToAccountID)
	}
	return tx
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// ProcessAllDue processes every active definition of userID that is due
// today or earlier, one after the other. Failures are logged and counted.
func (s *Scheduler) ProcessAllDue(ctx context.Context, userID string) (ProcessResult, error) {
	today := s.Today()
	due, err := s.store.FindRecurringDefinitions(ctx, userID, models.RecurringFilter{
		ActiveOnly:    true,
		DueOnOrBefore: &today,
	})
	if err != nil {
		return ProcessResult{}, fmt.Errorf("error loading due recurring definitions: %w", err)
	}

	var result ProcessResult
	for _, def := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if def.UserID != userID || !def.IsDue(today) {
			continue
		}
		if _, err := s.process(ctx, def); err != nil {
			msg := "Recurring definition could not be processed"
			if errors.Is(err, apperror.ErrRecurrenceAdvance) {
				msg = "Recurring transaction insert failed, will retry"
			}
			s.logger.WithError(err).Warn(msg,
				logging.F(logging.FieldUserID, userID),
				logging.F(logging.FieldRecurringID, def.ID))
			result.Failed++
			continue
		}
		result.Processed++
	}

	s.logger.Info("Processed due recurring definitions",
		logging.F(logging.FieldUserID, userID),
		logging.F("processed", result.Processed),
		logging.F("failed", result.Failed))
	return result, nil
}

// SetActive activates or deactivates a definition owned by userID. It is
// the only way to reactivate a definition.
func (s *Scheduler) SetActive(ctx context.Context, userID, definitionID string, active bool) error {
	if _, err := store.OwnedRecurringDefinition(ctx, s.store, userID, definitionID); err != nil {
		return err
	}
	if err := s.store.UpdateRecurringDefinition(ctx, definitionID, models.RecurringUpdate{IsActive: &active}); err != nil {
		return fmt.Errorf("error updating recurring definition: %w", err)
	}
	s.logger.Info("Recurring definition toggled",
		logging.F(logging.FieldRecurringID, definitionID),
		logging.F("active", active))
	return nil
}

// Upcoming lists the active definitions of userID due within the next
// days days, overdue ones included, ordered by next occurrence.
func (s *Scheduler) Upcoming(ctx context.Context, userID string, days int) ([]models.RecurringDefinition, error) {
	if days < 0 {
		return nil, apperror.Invalid("days", "must not be negative")
	}
	horizon := s.Today().AddDays(days)
	defs, err := s.store.FindRecurringDefinitions(ctx, userID, models.RecurringFilter{
		ActiveOnly:    true,
		DueOnOrBefore: &horizon,
	})
	if err != nil {
		return nil, fmt.Errorf("error loading recurring definitions: %w", err)
	}
	return defs, nil
}
