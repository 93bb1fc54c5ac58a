// Package importcmd implements the CSV import command
package importcmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/internal/csvimport"
	"fjacquet/fintrack/internal/dateutils"
	"fjacquet/fintrack/internal/importer"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"

	"github.com/spf13/cobra"
)

// Options holds the import command flags.
type Options struct {
	Input             string
	AccountID         string
	Delimiter         string
	DateFormat        string
	Header            bool
	NoHeader          bool
	Invert            bool
	DateColumn        string
	DescriptionColumn string
	AmountColumn      string
	PreviewOnly       bool
	IncludeDuplicates bool
	Output            string
}

var opts Options

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bank statement CSV file into an account",
	Long: `Import a bank statement CSV file. The delimiter, header row, date format and
column mapping are detected and can be overridden with flags. Rows are
categorized and checked for duplicates before being committed; duplicates
and invalid rows are skipped unless --all is given.`,
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Input CSV file")
	Cmd.Flags().StringVarP(&opts.AccountID, "account", "a", "", "Account to import into")
	Cmd.Flags().StringVarP(&opts.Delimiter, "delimiter", "d", "", "Field delimiter (default: detected)")
	Cmd.Flags().StringVar(&opts.DateFormat, "date-format", "",
		"Date format, one of "+strings.Join(dateutils.FormatNames(), ", ")+" (default: detected)")
	Cmd.Flags().BoolVar(&opts.Header, "header", false, "Force the first row to be treated as a header")
	Cmd.Flags().BoolVar(&opts.NoHeader, "no-header", false, "Force the first row to be treated as data")
	Cmd.Flags().BoolVar(&opts.Invert, "invert", false, "Invert amount signs (positive amounts become expenses)")
	Cmd.Flags().StringVar(&opts.DateColumn, "date-col", "", "Column holding the date")
	Cmd.Flags().StringVar(&opts.DescriptionColumn, "desc-col", "", "Column holding the description")
	Cmd.Flags().StringVar(&opts.AmountColumn, "amount-col", "", "Column holding the amount")
	Cmd.Flags().BoolVarP(&opts.PreviewOnly, "preview", "p", false, "Show the preview without committing")
	Cmd.Flags().BoolVar(&opts.IncludeDuplicates, "all", false, "Also commit rows flagged as duplicates")
	Cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the preview rows to this CSV file")
	Cmd.MarkFlagsMutuallyExclusive("header", "no-header")
	_ = Cmd.MarkFlagRequired("input")
	_ = Cmd.MarkFlagRequired("account")
}

// ParseOptions converts the flags into parser options. fallback is the
// configured default delimiter, 0 meaning auto-detect.
func (o Options) ParseOptions(fallback rune) (csvimport.Options, error) {
	parse := csvimport.Options{
		Delimiter:  fallback,
		DateFormat: o.DateFormat,
		DateColumn: o.DateColumn,
	}
	if o.DateFormat != "" {
		if _, ok := dateutils.FormatByName(o.DateFormat); !ok {
			return parse, fmt.Errorf("unsupported date format %q, expected one of %s",
				o.DateFormat, strings.Join(dateutils.FormatNames(), ", "))
		}
	}
	if o.Delimiter != "" {
		delim := o.Delimiter
		if delim == `\t` || delim == "tab" {
			delim = "\t"
		}
		if utf8.RuneCountInString(delim) != 1 {
			return parse, fmt.Errorf("delimiter must be a single character, got %q", o.Delimiter)
		}
		parse.Delimiter, _ = utf8.DecodeRuneInString(delim)
	}
	switch {
	case o.Header:
		parse.Header = csvimport.HeaderPresent
	case o.NoHeader:
		parse.Header = csvimport.HeaderAbsent
	}
	return parse, nil
}

// ImportConfig builds the session configuration from what was detected in
// file, applying the column and sign overrides.
func (o Options) ImportConfig(file *csvimport.ParsedFile) models.ImportConfig {
	cfg := importer.DefaultConfig(o.AccountID, file)
	cfg.InvertAmounts = o.Invert
	if o.DateColumn != "" {
		cfg.ColumnMapping.Date = o.DateColumn
	}
	if o.DescriptionColumn != "" {
		cfg.ColumnMapping.Description = o.DescriptionColumn
	}
	if o.AmountColumn != "" {
		cfg.ColumnMapping.Amount = o.AmountColumn
	}
	return cfg
}

// Selection returns the rows to commit. Invalid rows are always left out;
// duplicates only when includeDuplicates is false.
func Selection(rows []models.CandidateTransaction, includeDuplicates bool) []models.CandidateTransaction {
	if !includeDuplicates {
		return importer.SelectDefault(rows)
	}
	selected := make([]models.CandidateTransaction, 0, len(rows))
	for _, row := range rows {
		if row.IsValid {
			selected = append(selected, row)
		}
	}
	return selected
}

func importFunc(cmd *cobra.Command, args []string) error {
	userID, err := root.RequireUser()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := root.GetContainer(ctx)
	if err != nil {
		return err
	}

	parseOpts, err := opts.ParseOptions(app.GetConfig().Delimiter())
	if err != nil {
		return err
	}
	file, err := app.GetParser().ParseFile(opts.Input, parseOpts)
	if err != nil {
		return err
	}

	cfg := opts.ImportConfig(file)
	preview, err := app.GetImportSession().Preview(ctx, userID, file, cfg)
	if err != nil {
		return fmt.Errorf("error previewing import: %w", err)
	}

	out := cmd.OutOrStdout()
	printPreview(out, preview)

	if opts.Output != "" {
		if err := WritePreviewFile(opts.Output, preview.Rows); err != nil {
			return err
		}
		root.Log.Info("Preview written", logging.F("file", opts.Output), logging.F("rows", len(preview.Rows)))
	}

	if opts.PreviewOnly {
		return nil
	}

	result, err := app.GetImportSession().Commit(ctx, userID, cfg.AccountID, Selection(preview.Rows, opts.IncludeDuplicates))
	if err != nil {
		return fmt.Errorf("error committing import: %w", err)
	}
	fmt.Fprintf(out, "Imported: %d\nErrors: %d\n", result.Imported, result.Errors)
	return nil
}

func printPreview(w io.Writer, p *importer.Preview) {
	fmt.Fprintf(w, "Delimiter: %q  Header: %t  Date format: %s\n", p.Config.Delimiter, p.Config.HasHeader, p.Config.DateFormat)
	fmt.Fprintf(w, "Columns: date=%s description=%s amount=%s\n",
		p.Config.ColumnMapping.Date, p.Config.ColumnMapping.Description, p.Config.ColumnMapping.Amount)
	fmt.Fprintf(w, "Rows: %d  Valid: %d  Invalid: %d  Duplicates: %d  Suggested: %d  Auto-selected: %d\n",
		p.Stats.Total, p.Stats.Valid, p.Stats.Invalid, p.Stats.Duplicates, p.Stats.Suggested, p.Stats.AutoSelected)
}
