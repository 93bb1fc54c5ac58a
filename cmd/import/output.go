package importcmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"fjacquet/fintrack/internal/models"

	"github.com/gocarina/gocsv"
)

// PreviewRow is the flat CSV form of a candidate transaction.
type PreviewRow struct {
	Row          int    `csv:"Row"`
	Date         string `csv:"Date"`
	Description  string `csv:"Description"`
	Amount       string `csv:"Amount"`
	Type         string `csv:"Type"`
	Category     string `csv:"Category"`
	Confidence   string `csv:"Confidence"`
	AutoSelected bool   `csv:"AutoSelected"`
	Duplicate    bool   `csv:"Duplicate"`
	DuplicateOf  string `csv:"DuplicateOf"`
	Valid        bool   `csv:"Valid"`
	Errors       string `csv:"Errors"`
}

// ToPreviewRows flattens candidate transactions for CSV output.
func ToPreviewRows(rows []models.CandidateTransaction) []PreviewRow {
	out := make([]PreviewRow, len(rows))
	for i, r := range rows {
		out[i] = PreviewRow{
			Row:          r.RowNumber,
			Date:         r.Date,
			Description:  r.Description,
			Amount:       r.Amount.StringFixed(2),
			Type:         string(r.Type),
			Confidence:   fmt.Sprintf("%.2f", r.Confidence),
			AutoSelected: r.AutoSelected,
			Duplicate:    r.IsDuplicate,
			Valid:        r.IsValid,
			Errors:       strings.Join(r.Errors, "; "),
		}
		if r.SuggestedCategoryName != nil {
			out[i].Category = *r.SuggestedCategoryName
		}
		if r.DuplicateOf != nil {
			out[i].DuplicateOf = *r.DuplicateOf
		}
	}
	return out
}

// WritePreviewFile writes the candidate rows to path as CSV.
func WritePreviewFile(path string, rows []models.CandidateTransaction) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	return writePreview(file, rows)
}

// writePreview writes rows to w and closes it. A close failure is reported
// when the write itself succeeded.
func writePreview(w io.WriteCloser, rows []models.CandidateTransaction) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing output file: %w", cerr)
		}
	}()

	writer := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(ToPreviewRows(rows), gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("error writing preview rows: %w", err)
	}
	return nil
}
