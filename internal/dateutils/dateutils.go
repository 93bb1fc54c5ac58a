// Package dateutils provides calendar-date parsing and arithmetic used by the
// import pipeline and the recurrence scheduler.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Format is a user-facing date format name paired with its Go layout.
// Layouts use non-padded day and month verbs so both "1/3/2024" and
// "01/03/2024" parse.
type Format struct {
	Name   string
	Layout string
}

// Known import formats, in detection order. Day-first variants come before
// the US month-first variant, so ambiguous samples resolve to day-first.
var ImportFormats = []Format{
	{Name: "DD/MM/YYYY", Layout: "2/1/2006"},
	{Name: "DD-MM-YYYY", Layout: "2-1-2006"},
	{Name: "DD.MM.YYYY", Layout: "2.1.2006"},
	{Name: "YYYY-MM-DD", Layout: "2006-1-2"},
	{Name: "MM/DD/YYYY", Layout: "1/2/2006"},
	{Name: "YYYY/MM/DD", Layout: "2006/1/2"},
}

var whitespace = regexp.MustCompile(`\s+`)

// FormatByName looks up an import format by its name, e.g. "DD/MM/YYYY".
func FormatByName(name string) (Format, bool) {
	for _, f := range ImportFormats {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f, true
		}
	}
	return Format{}, false
}

// FormatNames lists the names of all import formats.
func FormatNames() []string {
	names := make([]string, len(ImportFormats))
	for i, f := range ImportFormats {
		names[i] = f.Name
	}
	return names
}

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// Parse parses value with f.
func (f Format) Parse(value string) (civil.Date, error) {
	t, err := time.Parse(f.Layout, CleanDateString(value))
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

// ParseInFormat parses value with the named import format.
func ParseInFormat(value, formatName string) (civil.Date, error) {
	f, ok := FormatByName(formatName)
	if !ok {
		return civil.Date{}, fmt.Errorf("unknown date format %q", formatName)
	}
	return f.Parse(value)
}

// ParseISO parses a YYYY-MM-DD date.
func ParseISO(value string) (civil.Date, error) {
	return civil.ParseDate(strings.TrimSpace(value))
}

// ToISO formats d as YYYY-MM-DD.
func ToISO(d civil.Date) string {
	return d.String()
}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths adds n calendar months to d. When the target month is shorter
// than d's day, the result is clamped to the target month's last day:
// Jan 31 + 1 month is Feb 29 in 2024 and Feb 28 in 2023.
func AddMonths(d civil.Date, n int) civil.Date {
	total := int(d.Month) - 1 + n
	year := d.Year + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)

	day := d.Day
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

// AddYears adds n calendar years to d with the same clamping as AddMonths.
func AddYears(d civil.Date, n int) civil.Date {
	return AddMonths(d, 12*n)
}

// Today returns the current calendar date in loc (UTC when nil).
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(now.In(loc))
}

// MinMax returns the earliest and latest of dates. ok is false when dates is empty.
func MinMax(dates []civil.Date) (earliest, latest civil.Date, ok bool) {
	for i, d := range dates {
		if i == 0 || d.Before(earliest) {
			earliest = d
		}
		if i == 0 || d.After(latest) {
			latest = d
		}
	}
	return earliest, latest, len(dates) > 0
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
