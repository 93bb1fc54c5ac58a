package csvimport

import (
	"errors"
	"strings"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/currencyutils"
	"fjacquet/fintrack/internal/dateutils"
)

// DefaultDelimiter is used when no candidate appears in the sampled lines.
const DefaultDelimiter = ','

// detectLines is the number of leading non-blank lines inspected for delimiter detection.
const detectLines = 5

// DelimiterCandidates in priority order. Ties go to the earlier entry.
var DelimiterCandidates = []rune{',', ';', '\t', '|'}

var (
	ErrInsufficientRows = errors.New("insufficient rows")
	ErrNoDateFormat     = errors.New("no known date format matches all samples")
)

// DetectDelimiter counts each candidate over the first lines of text and
// returns the most frequent one.
func DetectDelimiter(text string) rune {
	lines := nonBlankLines(text, detectLines)

	best, bestCount := rune(DefaultDelimiter), 0
	for _, c := range DelimiterCandidates {
		n := 0
		for _, line := range lines {
			n += strings.Count(line, string(c))
		}
		if n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// DetectDateFormat returns the name of the first known format under which
// every non-empty sample parses.
func DetectDateFormat(samples []string) (string, error) {
	values := make([]string, 0, len(samples))
	for _, s := range samples {
		if v := strings.TrimSpace(s); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "", &apperror.ParseError{Field: "date format", Err: ErrNoDateFormat}
	}

	for _, f := range dateutils.ImportFormats {
		if allParse(f, values) {
			return f.Name, nil
		}
	}
	return "", &apperror.ParseError{Field: "date format", Value: values[0], Err: ErrNoDateFormat}
}

func allParse(f dateutils.Format, values []string) bool {
	for _, v := range values {
		if _, err := f.Parse(v); err != nil {
			return false
		}
	}
	return true
}

// DetectHeader reports whether the first record looks like a header: none of
// its cells reads as a date or an amount.
func DetectHeader(first []string) bool {
	if len(first) == 0 {
		return false
	}
	for _, cell := range first {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if _, err := currencyutils.ParseAmount(cell); err == nil {
			return false
		}
		for _, f := range dateutils.ImportFormats {
			if _, err := f.Parse(cell); err == nil {
				return false
			}
		}
	}
	return true
}

func nonBlankLines(text string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(stripBOM(text), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(line, "\r"))
		if limit > 0 && len(lines) == limit {
			break
		}
	}
	return lines
}

func stripBOM(text string) string {
	return strings.TrimPrefix(text, "\ufeff")
}
