package csvimport

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode"

	"fjacquet/fintrack/internal/apperror"
)

// Tokenize splits text into records using delimiter. Blank lines and records
// whose cells are all empty are skipped. When hasHeader is set the first
// record is returned separately.
func Tokenize(text string, delimiter rune, hasHeader bool) ([]string, [][]string, error) {
	reader := csv.NewReader(strings.NewReader(stripBOM(text)))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	// leading-space trimming would swallow empty fields of tab-separated files
	reader.TrimLeadingSpace = !unicode.IsSpace(delimiter)

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return nil, nil, &apperror.ParseError{Field: "csv", Row: line, Err: err}
		}
		if blankRecord(record) {
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		records = append(records, record)
	}

	if hasHeader && len(records) > 0 {
		return records[0], records[1:], nil
	}
	return nil, records, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
