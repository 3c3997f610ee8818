// Package reporter renders extraction outcomes for people and for the
// downstream transaction processor.
//
// Supported output formats:
//   - Console: human-readable summary and transaction table
//   - JSON: the transaction shape consumed downstream, plus diagnostics
//   - CSV: one row per transaction for spreadsheet applications
//
// Example usage:
//
//	gen, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatJSON, Currency: "INR"})
//	err = gen.GenerateReport(results, os.Stdout)
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"golang-statement-normalizer/internal/ingest"
	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/pkg/errors"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Currency is the ISO-4217 code used to display console amounts
	Currency string `json:"currency"`

	IncludeTransactions bool `json:"include_transactions"`
	IncludeDiagnostics  bool `json:"include_diagnostics"`

	// MaxItems caps the console transaction table; 0 means no cap
	MaxItems         int `json:"max_items"`
	DescriptionWidth int `json:"description_width"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:              FormatConsole,
		Currency:            money.INR,
		IncludeTransactions: true,
		IncludeDiagnostics:  true,
		MaxItems:            0,
		DescriptionWidth:    40,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if money.GetCurrency(c.Currency) == nil {
		return fmt.Errorf("unknown currency code: %q", c.Currency)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max items cannot be negative, got %d", c.MaxItems)
	}
	if c.DescriptionWidth < 10 {
		return fmt.Errorf("description width must be at least 10 characters, got %d", c.DescriptionWidth)
	}
	return nil
}

// ReportGenerator renders batch results in one format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the results to writer in the configured format
func (rg *ReportGenerator) GenerateReport(results []ingest.FileResult, writer io.Writer) error {
	if results == nil {
		return fmt.Errorf("results cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(results, writer)
	case FormatJSON:
		return rg.generateJSONReport(results, writer)
	case FormatCSV:
		return rg.generateCSVReport(results, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(results []ingest.FileResult, writer io.Writer) error {
	fmt.Fprintf(writer, "STATEMENT EXTRACTION REPORT\n")
	fmt.Fprintf(writer, "Files: %d\n\n", len(results))

	for _, r := range results {
		fmt.Fprintf(writer, "=== %s ===\n", r.Path)
		if r.Err != nil {
			rg.printError(r.Err, writer)
			fmt.Fprintf(writer, "\n")
			continue
		}

		rg.printSummary(r.Outcome.Summary(), writer)
		if rg.config.IncludeDiagnostics {
			rg.printDiagnostics(r.Outcome.Diagnostics, writer)
		}
		if rg.config.IncludeTransactions && len(r.Outcome.Transactions) > 0 {
			rg.printTransactions(r.Outcome.Transactions, writer)
		}
		fmt.Fprintf(writer, "\n")
	}
	return nil
}

func (rg *ReportGenerator) printError(err error, writer io.Writer) {
	ingestErr, ok := errors.AsIngestError(err)
	if !ok {
		fmt.Fprintf(writer, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(writer, "Error:      %s\n", ingestErr.Message)
	fmt.Fprintf(writer, "Code:       %s\n", ingestErr.Code)
	fmt.Fprintf(writer, "Stage:      %s\n", ingestErr.Stage())
	if ingestErr.Suggestion != "" {
		fmt.Fprintf(writer, "Suggestion: %s\n", ingestErr.Suggestion)
	}
}

func (rg *ReportGenerator) printSummary(s models.Summary, writer io.Writer) {
	fmt.Fprintf(writer, "Transactions:    %d\n", s.Total)
	fmt.Fprintf(writer, "  Debits:        %d (%s)\n", s.Debits, rg.display(s.TotalDebit))
	fmt.Fprintf(writer, "  Credits:       %d (%s)\n", s.Credits, rg.display(s.TotalCredit))
	fmt.Fprintf(writer, "  Balance lines: %d\n", s.BroughtForward)
	fmt.Fprintf(writer, "Net movement:    %s\n", rg.display(s.Net()))
	if s.FirstDate != nil && s.LastDate != nil {
		fmt.Fprintf(writer, "Period:          %s to %s\n",
			s.FirstDate.Format(models.DateLayout), s.LastDate.Format(models.DateLayout))
	}
}

func (rg *ReportGenerator) printDiagnostics(d models.Diagnostics, writer io.Writer) {
	fmt.Fprintf(writer, "Format:          %s\n", d.Format)
	if d.Encoding != "" {
		fmt.Fprintf(writer, "Encoding:        %s\n", d.Encoding)
	}
	if d.Delimiter != "" {
		fmt.Fprintf(writer, "Delimiter:       %q\n", d.Delimiter)
	}
	if d.Backend != "" {
		fmt.Fprintf(writer, "PDF backend:     %s\n", d.Backend)
	}
	fmt.Fprintf(writer, "Rejected rows:   %d\n", d.Rejected())
	fmt.Fprintf(writer, "Duration:        %s\n", d.Duration.Round(time.Millisecond))
	for _, u := range d.Units {
		fmt.Fprintf(writer, "  %-5s %3d  strategy=%-10s accepted=%d rejected=%d\n",
			u.Kind, u.Index, u.Strategy, u.Accepted, u.Rejected)
	}
}

func (rg *ReportGenerator) printTransactions(txs []*models.ParsedTransaction, writer io.Writer) {
	width := rg.config.DescriptionWidth
	fmt.Fprintf(writer, "\n%-10s  %-*s  %15s  %15s  %15s\n", "Date", width, "Description", "Debit", "Credit", "Balance")
	fmt.Fprintf(writer, "%s\n", strings.Repeat("-", 10+2+width+3*17))

	for i, tx := range txs {
		if rg.config.MaxItems > 0 && i >= rg.config.MaxItems {
			fmt.Fprintf(writer, "... and %d more\n", len(txs)-i)
			break
		}
		var debit, credit, balance string
		if tx.Amount != nil {
			if *tx.Direction == models.DirectionCredit {
				credit = rg.display(*tx.Amount)
			} else {
				debit = rg.display(*tx.Amount)
			}
		}
		if tx.Balance != nil {
			balance = rg.display(*tx.Balance)
		}
		fmt.Fprintf(writer, "%-10s  %-*s  %15s  %15s  %15s\n",
			tx.OccurredOn.Format(models.DateLayout), width, truncate(tx.Description, width), debit, credit, balance)
	}
}

// display formats d in the configured currency
func (rg *ReportGenerator) display(d decimal.Decimal) string {
	return toMoney(d, rg.config.Currency).Display()
}

// toMoney converts d into minor units of currency
func toMoney(d decimal.Decimal, currency string) *money.Money {
	c := money.GetCurrency(currency)
	minor := d.Mul(decimal.New(1, int32(c.Fraction))).Round(0).IntPart()
	return money.New(minor, c.Code)
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

// fileReport is the JSON shape of one file
type fileReport struct {
	Filename     string                      `json:"filename"`
	Status       string                      `json:"status"`
	Transactions []*models.ParsedTransaction `json:"transactions,omitempty"`
	Summary      *models.Summary             `json:"summary,omitempty"`
	Diagnostics  *models.Diagnostics         `json:"diagnostics,omitempty"`
	Error        *errorReport                `json:"error,omitempty"`
}

type errorReport struct {
	Code       errors.ErrorCode `json:"code"`
	Stage      string           `json:"stage"`
	Message    string           `json:"message"`
	Suggestion string           `json:"suggestion,omitempty"`
}

// generateJSONReport generates a structured JSON report
func (rg *ReportGenerator) generateJSONReport(results []ingest.FileResult, writer io.Writer) error {
	reports := make([]fileReport, 0, len(results))
	for _, r := range results {
		fr := fileReport{Filename: r.Path, Status: "success"}
		if r.Err != nil {
			fr.Status = "error"
			ingestErr := errors.WrapIfNeeded(r.Err, errors.CategoryInternal, errors.CodeUnexpectedError, r.Err.Error())
			fr.Error = &errorReport{
				Code:       ingestErr.Code,
				Stage:      ingestErr.Stage(),
				Message:    ingestErr.Message,
				Suggestion: ingestErr.Suggestion,
			}
			reports = append(reports, fr)
			continue
		}

		summary := r.Outcome.Summary()
		fr.Summary = &summary
		if rg.config.IncludeTransactions {
			fr.Transactions = r.Outcome.Transactions
		}
		if rg.config.IncludeDiagnostics {
			fr.Diagnostics = &r.Outcome.Diagnostics
		}
		reports = append(reports, fr)
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{"files": reports})
}

// csvRow is one transaction in the CSV report
type csvRow struct {
	File        string `csv:"file"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Direction   string `csv:"direction"`
	Balance     string `csv:"balance"`
}

// generateCSVReport generates a CSV report with one row per transaction.
// Failed files contribute no rows.
func (rg *ReportGenerator) generateCSVReport(results []ingest.FileResult, writer io.Writer) error {
	rows := make([]*csvRow, 0)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, tx := range r.Outcome.Transactions {
			row := &csvRow{
				File:        r.Path,
				Date:        tx.OccurredOn.Format(models.DateLayout),
				Description: tx.Description,
			}
			if tx.Amount != nil {
				row.Amount = tx.Amount.StringFixed(2)
				row.Direction = tx.Direction.String()
			}
			if tx.Balance != nil {
				row.Balance = tx.Balance.StringFixed(2)
			}
			rows = append(rows, row)
		}
	}

	if err := gocsv.Marshal(&rows, writer); err != nil {
		return fmt.Errorf("failed to write CSV report: %w", err)
	}
	return nil
}

// UpdateConfiguration replaces the generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}
	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
