package importer

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/fintrack/internal/currencyutils"
	"fjacquet/fintrack/internal/dateutils"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DescriptionPrefixLength is how many runes of a candidate description
// must appear in a stored description.
const DescriptionPrefixLength = 20

// AmountTolerance is the largest amount difference still treated as equal.
var AmountTolerance = decimal.NewFromFloat(0.01)

// DuplicateCandidate is what the detector needs to know about a row.
type DuplicateCandidate struct {
	Date        civil.Date
	Amount      decimal.Decimal
	Description string
}

// DuplicateMatch is the detector's verdict for one candidate.
type DuplicateMatch struct {
	IsDuplicate bool
	ExistingID  *string
}

// DuplicateDetector compares candidates against stored transactions.
type DuplicateDetector struct {
	store  store.Store
	logger logging.Logger
}

// NewDuplicateDetector creates a DuplicateDetector.
func NewDuplicateDetector(s store.Store, logger logging.Logger) *DuplicateDetector {
	return &DuplicateDetector{store: s, logger: logging.OrDefault(logger)}
}

// Detect returns one verdict per candidate, in order. Stored transactions
// are fetched once for the candidates' date range; an empty candidate list
// fetches nothing.
func (d *DuplicateDetector) Detect(ctx context.Context, accountID string, candidates []DuplicateCandidate) ([]DuplicateMatch, error) {
	matches := make([]DuplicateMatch, len(candidates))

	dates := make([]civil.Date, len(candidates))
	for i, c := range candidates {
		dates[i] = c.Date
	}
	from, to, ok := dateutils.MinMax(dates)
	if !ok {
		return matches, nil
	}

	existing, err := d.store.FindTransactions(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error loading existing transactions: %w", err)
	}

	found := 0
	for i, c := range candidates {
		if tx, ok := firstMatch(c, existing); ok {
			id := tx.ID
			matches[i] = DuplicateMatch{IsDuplicate: true, ExistingID: &id}
			found++
		}
	}

	d.logger.Debug("Duplicate detection completed",
		logging.F(logging.FieldAccountID, accountID),
		logging.F(logging.FieldCount, found))
	return matches, nil
}

func firstMatch(c DuplicateCandidate, existing []models.Transaction) (models.Transaction, bool) {
	prefix := strings.ToLower(descriptionPrefix(c.Description))
	for _, tx := range existing {
		if tx.Date != c.Date {
			continue
		}
		if !currencyutils.NearlyEqual(tx.Amount, c.Amount, AmountTolerance) {
			continue
		}
		if strings.Contains(strings.ToLower(tx.DescriptionText()), prefix) {
			return tx, true
		}
	}
	return models.Transaction{}, false
}

func descriptionPrefix(s string) string {
	r := []rune(s)
	if len(r) > DescriptionPrefixLength {
		r = r[:DescriptionPrefixLength]
	}
	return string(r)
}

// MarkDuplicates runs Detect over the valid candidates and records the
// verdicts on them. Invalid rows are never flagged.
func (d *DuplicateDetector) MarkDuplicates(ctx context.Context, accountID string, candidates []models.CandidateTransaction) error {
	var (
		idx   []int
		input []DuplicateCandidate
	)
	for i, c := range candidates {
		if !c.IsValid {
			continue
		}
		date, err := dateutils.ParseISO(c.Date)
		if err != nil {
			continue
		}
		idx = append(idx, i)
		input = append(input, DuplicateCandidate{Date: date, Amount: c.Amount, Description: c.Description})
	}

	matches, err := d.Detect(ctx, accountID, input)
	if err != nil {
		return err
	}
	for j, m := range matches {
		c := &candidates[idx[j]]
		c.IsDuplicate = m.IsDuplicate
		c.DuplicateOf = m.ExistingID
	}
	return nil
}
