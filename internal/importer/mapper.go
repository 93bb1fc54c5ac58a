// Package importer turns a parsed CSV file into candidate transactions,
// flags duplicates against stored transactions and commits the rows the
// user selected.
package importer

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/categorizer"
	"fjacquet/fintrack/internal/csvimport"
	"fjacquet/fintrack/internal/currencyutils"
	"fjacquet/fintrack/internal/dateutils"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent categorization calls during mapping.
const DefaultWorkers = 8

// Categorizer suggests a category for a description.
// Implemented by categorizer.Engine and categorizer.Snapshot.
type Categorizer interface {
	Categorize(ctx context.Context, userID, description string) (categorizer.Suggestion, error)
}

// MapperConfig tunes the mapper. Zero fields fall back to the defaults.
type MapperConfig struct {
	Workers             int
	AutoAcceptThreshold float64
	ShowThreshold       float64
}

// DefaultMapperConfig returns the default mapper settings.
func DefaultMapperConfig() MapperConfig {
	return MapperConfig{
		Workers:             DefaultWorkers,
		AutoAcceptThreshold: categorizer.AutoAcceptThreshold,
		ShowThreshold:       categorizer.ShowThreshold,
	}
}

func (c MapperConfig) withDefaults() MapperConfig {
	d := DefaultMapperConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.AutoAcceptThreshold <= 0 {
		c.AutoAcceptThreshold = d.AutoAcceptThreshold
	}
	if c.ShowThreshold <= 0 {
		c.ShowThreshold = d.ShowThreshold
	}
	return c
}

// Mapper normalizes raw rows into candidate transactions.
type Mapper struct {
	categorizer Categorizer
	cfg         MapperConfig
	logger      logging.Logger
}

// NewMapper creates a Mapper. cat may be nil to skip categorization.
func NewMapper(cat Categorizer, cfg MapperConfig, logger logging.Logger) *Mapper {
	return &Mapper{
		categorizer: cat,
		cfg:         cfg.withDefaults(),
		logger:      logging.OrDefault(logger),
	}
}

type columns struct {
	date, description, amount int
}

func resolveColumns(file *csvimport.ParsedFile, m models.ColumnMapping) (columns, error) {
	cols := columns{
		date:        file.ColumnIndex(m.Date),
		description: file.ColumnIndex(m.Description),
		amount:      file.ColumnIndex(m.Amount),
	}
	switch {
	case cols.date < 0:
		return cols, apperror.Invalid("column_mapping.date", "unknown column "+m.Date)
	case cols.description < 0:
		return cols, apperror.Invalid("column_mapping.description", "unknown column "+m.Description)
	case cols.amount < 0:
		return cols, apperror.Invalid("column_mapping.amount", "unknown column "+m.Amount)
	}
	return cols, nil
}

// Map produces one candidate per data row of file, in file order. Row
// problems mark the candidate invalid; only configuration problems and
// context cancellation are returned as errors.
func (m *Mapper) Map(ctx context.Context, userID string, file *csvimport.ParsedFile, cfg models.ImportConfig) ([]models.CandidateTransaction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, ok := dateutils.FormatByName(cfg.DateFormat); !ok {
		return nil, apperror.Invalid("date_format", fmt.Sprintf("unsupported format %q, expected one of %s",
			cfg.DateFormat, strings.Join(dateutils.FormatNames(), ", ")))
	}
	cols, err := resolveColumns(file, cfg.ColumnMapping)
	if err != nil {
		return nil, err
	}

	offset := 1
	if cfg.HasHeader {
		offset = 2
	}

	candidates := make([]models.CandidateTransaction, len(file.Rows))
	for i, row := range file.Rows {
		candidates[i] = normalizeRow(row, i+offset, cols, cfg)
	}

	if err := m.categorize(ctx, userID, candidates); err != nil {
		return nil, err
	}

	m.logger.Info("Mapped import rows",
		logging.F(logging.FieldAccountID, cfg.AccountID),
		logging.F(logging.FieldCount, len(candidates)))
	return candidates, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func normalizeRow(row []string, rowNumber int, cols columns, cfg models.ImportConfig) models.CandidateTransaction {
	c := models.CandidateTransaction{RowNumber: rowNumber, IsValid: true}

	if d, err := dateutils.ParseInFormat(cell(row, cols.date), cfg.DateFormat); err != nil {
		c.Invalidate(models.ErrInvalidDate)
	} else {
		c.Date = dateutils.ToISO(d)
	}

	c.Description = cell(row, cols.description)
	if c.Description == "" {
		c.Invalidate(models.ErrEmptyDescription)
	}

	amount, err := currencyutils.ParseAmount(cell(row, cols.amount))
	if err != nil {
		c.Invalidate(models.ErrInvalidAmount)
		amount = decimal.Zero
	}
	expense := amount.IsNegative() != cfg.InvertAmounts
	if expense {
		c.Type = models.TypeExpense
	} else {
		c.Type = models.TypeIncome
	}
	c.Amount = amount.Abs()
	return c
}

// categorize fills suggestions with at most cfg.Workers calls in flight.
// Each worker writes only its own index.
func (m *Mapper) categorize(ctx context.Context, userID string, candidates []models.CandidateTransaction) error {
	if m.categorizer == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for i := range candidates {
		c := &candidates[i]
		if !c.IsValid || c.Description == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			suggestion, err := m.categorizer.Categorize(gctx, userID, c.Description)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				m.logger.WithError(err).Warn("Categorization failed",
					logging.F(logging.FieldRow, c.RowNumber))
				return nil
			}
			m.applySuggestion(c, suggestion)
			return nil
		})
	}
	return g.Wait()
}

func (m *Mapper) applySuggestion(c *models.CandidateTransaction, s categorizer.Suggestion) {
	if !s.Found() || s.CategoryType != c.Type || s.Confidence <= m.cfg.ShowThreshold {
		return
	}
	id, name := *s.CategoryID, s.CategoryName
	c.SuggestedCategoryID = &id
	c.SuggestedCategoryName = &name
	c.Confidence = s.Confidence
	c.AutoSelected = s.AutoSelect(m.cfg.AutoAcceptThreshold)
}
