// Package currencyutils provides amount parsing and decimal helpers used by the import pipeline.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// currency symbols, ISO codes and any whitespace (incl. NBSP used as thousands separator)
	noiseRe  = regexp.MustCompile(`[\p{Sc}\p{Zs}\sA-Za-z]`)
	digitsRe = regexp.MustCompile(`\d`)

	errNoDigits = errors.New("no digits")
)

// ParseAmount parses a bank-formatted amount into a signed decimal.
// It handles "1,234.56", "1.234,56", "1'234.56", "1 234,56", currency
// symbols and codes, a leading or trailing minus and accounting parentheses.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if !digitsRe.MatchString(standardized) {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, errNoDigits)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// StandardizeAmount converts various currency string formats to a form accepted by decimal.NewFromString.
func StandardizeAmount(amountStr string) string {
	s := strings.TrimSpace(amountStr)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = noiseRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("'", "", "’", "").Replace(s)

	switch {
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = strings.TrimPrefix(s, "-")
	case strings.HasPrefix(s, "+"):
		s = strings.TrimPrefix(s, "+")
	}

	s = normalizeSeparators(s)
	if negative && s != "" {
		return "-" + s
	}
	return s
}

func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot < lastComma {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", ".")
		}
		// 1,234.56
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			return parts[0] + "." + parts[1]
		}
		if thousandsGroups(parts) {
			return strings.Join(parts, "")
		}
		return s
	case strings.Count(s, ".") > 1:
		parts := strings.Split(s, ".")
		if thousandsGroups(parts) {
			return strings.Join(parts, "")
		}
	}
	return s
}

// thousandsGroups reports whether every group after the first has exactly three digits.
func thousandsGroups(parts []string) bool {
	if len(parts) < 2 || parts[0] == "" || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// NearlyEqual reports whether |a - b| < tolerance.
func NearlyEqual(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(tolerance)
}
