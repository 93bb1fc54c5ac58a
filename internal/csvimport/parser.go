// Package csvimport reads bank-statement CSV exports of unknown layout.
// It detects the delimiter, the header row and the date format, and returns
// the raw records for the field mapper.
package csvimport

import (
	"fmt"
	"io"
	"os"
	"strings"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/logging"
)

// HeaderMode tells Parse whether the first record is a header.
type HeaderMode int

const (
	HeaderAuto HeaderMode = iota
	HeaderPresent
	HeaderAbsent
)

// Options overrides detection. Zero values mean "detect".
type Options struct {
	Delimiter  rune
	Header     HeaderMode
	DateFormat string
	// DateColumn names the column sampled for date format detection.
	// Defaults to the first column.
	DateColumn string
}

// ParsedFile is the tokenized content of an import file.
type ParsedFile struct {
	Delimiter rune
	HasHeader bool
	// Header holds the column names. Files without a header get
	// synthesized names ("Column 1", "Column 2", ...).
	Header     []string
	Rows       [][]string
	DateFormat string
}

// ColumnIndex returns the index of the named column, or -1.
func (f *ParsedFile) ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range f.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Column returns all values of column idx. Short rows yield "".
func (f *ParsedFile) Column(idx int) []string {
	values := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		if idx >= 0 && idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values
}

// Parse tokenizes text, detecting whatever opts leaves unset. A date format
// that cannot be detected leaves DateFormat empty without failing the parse.
func Parse(text string, opts Options) (*ParsedFile, error) {
	if len(nonBlankLines(text, 2)) < 2 {
		return nil, &apperror.ParseError{Field: "file", Err: ErrInsufficientRows}
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = DetectDelimiter(text)
	}

	_, records, err := Tokenize(text, delimiter, false)
	if err != nil {
		return nil, err
	}

	hasHeader := opts.Header == HeaderPresent
	if opts.Header == HeaderAuto && len(records) > 0 {
		hasHeader = DetectHeader(records[0])
	}

	file := &ParsedFile{Delimiter: delimiter, HasHeader: hasHeader}
	if hasHeader {
		file.Header, file.Rows = records[0], records[1:]
	} else {
		file.Rows = records
		file.Header = synthesizeHeader(records)
	}
	if len(file.Rows) == 0 {
		return nil, &apperror.ParseError{Field: "file", Err: ErrInsufficientRows}
	}

	file.DateFormat = opts.DateFormat
	if file.DateFormat == "" {
		col, err := dateColumn(file, opts.DateColumn)
		if err != nil {
			return nil, err
		}
		// undetected format is reported through an empty DateFormat
		file.DateFormat, _ = DetectDateFormat(file.Column(col))
	}

	return file, nil
}

// dateColumn returns the column sampled for date format detection: the named
// column, else the one the suggested mapping assigns to the date, else the first.
func dateColumn(file *ParsedFile, name string) (int, error) {
	if name != "" {
		col := file.ColumnIndex(name)
		if col < 0 {
			return 0, apperror.Invalid("date_column", fmt.Sprintf("column %q not found", name))
		}
		return col, nil
	}
	if file.HasHeader {
		if col := file.ColumnIndex(SuggestMapping(file.Header).Date); col >= 0 {
			return col, nil
		}
	}
	return 0, nil
}

func synthesizeHeader(records [][]string) []string {
	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	header := make([]string, width)
	for i := range header {
		header[i] = fmt.Sprintf("Column %d", i+1)
	}
	return header
}

// Parser wraps Parse with logging and reader/file entry points.
type Parser struct {
	logger logging.Logger
}

// NewParser creates a Parser. A nil logger falls back to the default adapter.
func NewParser(logger logging.Logger) *Parser {
	return &Parser{logger: logging.OrDefault(logger)}
}

// Parse reads r fully and parses its content.
func (p *Parser) Parse(r io.Reader, opts Options) (*ParsedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading import data: %w", err)
	}

	file, err := Parse(string(data), opts)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to parse import file")
		return nil, err
	}

	fields := []logging.Field{
		logging.F(logging.FieldDelimiter, string(file.Delimiter)),
		logging.F(logging.FieldDateFormat, file.DateFormat),
		logging.F(logging.FieldCount, len(file.Rows)),
	}
	if file.DateFormat == "" {
		p.logger.Warn("No date format matches every sample, selection required", fields...)
	} else {
		p.logger.Info("Parsed import file", fields...)
	}
	return file, nil
}

// ParseFile opens path and parses it.
func (p *Parser) ParseFile(path string, opts Options) (*ParsedFile, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("error opening import file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close file", logging.F(logging.FieldInputFile, path))
		}
	}()

	return p.Parse(f, opts)
}
