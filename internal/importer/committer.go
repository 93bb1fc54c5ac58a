package importer

import (
	"context"
	"strings"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/dateutils"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"
)

// DefaultBatchSize is the number of rows inserted per store call.
const DefaultBatchSize = 50

// CommitResult aggregates the outcome of a commit.
type CommitResult struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}

// Committer inserts selected candidates as confirmed transactions.
type Committer struct {
	store     store.Store
	batchSize int
	logger    logging.Logger
}

// NewCommitter creates a Committer. A non-positive batchSize uses DefaultBatchSize.
func NewCommitter(s store.Store, batchSize int, logger logging.Logger) *Committer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Committer{store: s, batchSize: batchSize, logger: logging.OrDefault(logger)}
}

// Commit inserts the valid rows in batches. Account ownership is verified
// before the first insert. A failed batch counts its rows as errors and
// does not stop later batches; batch failures are never returned.
func (c *Committer) Commit(ctx context.Context, userID, accountID string, rows []models.CandidateTransaction) (CommitResult, error) {
	if strings.TrimSpace(accountID) == "" {
		return CommitResult{}, apperror.Invalid("account_id", "an account must be selected")
	}
	if _, err := store.OwnedAccount(ctx, c.store, userID, accountID); err != nil {
		return CommitResult{}, err
	}

	var result CommitResult
	txs := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		if !row.IsValid {
			continue
		}
		tx, err := toTransaction(userID, accountID, row)
		if err != nil {
			c.logger.WithError(err).Warn("Skipping row with unreadable date",
				logging.F(logging.FieldRow, row.RowNumber))
			result.Errors++
			continue
		}
		txs = append(txs, tx)
	}

	for start, batch := 0, 1; start < len(txs); start, batch = start+c.batchSize, batch+1 {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := min(start+c.batchSize, len(txs))
		chunk := txs[start:end]

		if _, err := c.store.InsertTransactions(ctx, chunk); err != nil {
			batchErr := &apperror.CommitBatchError{Batch: batch, Rows: len(chunk), Err: err}
			c.logger.WithError(batchErr).Error("Import batch failed",
				logging.F(logging.FieldAccountID, accountID),
				logging.F(logging.FieldBatch, batch),
				logging.F(logging.FieldCount, len(chunk)))
			result.Errors += len(chunk)
			continue
		}
		result.Imported += len(chunk)
	}

	c.logger.Info("Import committed",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldAccountID, accountID),
		logging.F("imported", result.Imported),
		logging.F("errors", result.Errors))
	return result, nil
}

func toTransaction(userID, accountID string, row models.CandidateTransaction) (models.Transaction, error) {
	date, err := dateutils.ParseISO(row.Date)
	if err != nil {
		return models.Transaction{}, err
	}
	description := row.Description
	var category *string
	if row.SuggestedCategoryID != nil {
		id := *row.SuggestedCategoryID
		category = &id
	}
	return models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  category,
		Type:        row.Type,
		Amount:      row.Amount,
		Description: &description,
		Date:        date,
		Tags:        []string{models.TagImported},
		Status:      models.StatusConfirmed,
	}, nil
}
