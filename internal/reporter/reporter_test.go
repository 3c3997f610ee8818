package reporter

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"golang-statement-normalizer/internal/ingest"
	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

func sampleResults() []ingest.FileResult {
	outcome := models.NewExtractionOutcome("march.csv", "csv")
	outcome.Diagnostics.Encoding = "utf-8"
	outcome.Diagnostics.Delimiter = ","
	outcome.Diagnostics.AddUnit(models.UnitDiagnostics{Kind: models.UnitFile, Strategy: "tabular", Candidates: 4, Accepted: 3, Rejected: 1})

	bal := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }

	outcome.Append(
		models.NewBroughtForward(day(15), "Opening Balance", bal("10000")),
		models.NewTransaction(day(16), "ATM Withdrawal", decimal.RequireFromString("1500.5"), models.DirectionDebit, bal("8499.50")),
		models.NewTransaction(day(17), "Salary, March", decimal.RequireFromString("50000"), models.DirectionCredit, nil),
	)

	return []ingest.FileResult{
		{Path: "march.csv", Outcome: outcome},
		{Path: "scan.pdf", Err: errors.ExtractionFailed("scan.pdf", nil)},
	}
}

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{name: "default config", config: nil},
		{name: "valid config", config: DefaultReportConfig()},
		{name: "invalid format", config: &ReportConfig{Format: "xml", Currency: "USD", DescriptionWidth: 40}, expectError: true},
		{name: "unknown currency", config: &ReportConfig{Format: FormatJSON, Currency: "ZZZ", DescriptionWidth: 40}, expectError: true},
		{name: "narrow description", config: &ReportConfig{Format: FormatConsole, Currency: "USD", DescriptionWidth: 5}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if generator == nil {
				t.Fatal("expected generator, got nil")
			}
		})
	}
}

func TestUpdateConfiguration(t *testing.T) {
	generator, _ := NewReportGenerator(nil)

	config := DefaultReportConfig()
	config.Format = FormatCSV
	if err := generator.UpdateConfiguration(config); err != nil {
		t.Fatalf("UpdateConfiguration failed: %v", err)
	}
	if generator.GetConfiguration().Format != FormatCSV {
		t.Errorf("expected csv format, got %s", generator.GetConfiguration().Format)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "file,date,description") {
		t.Errorf("expected CSV output, got:\n%s", buf.String())
	}

	if err := generator.UpdateConfiguration(&ReportConfig{Format: "xml", Currency: "USD", DescriptionWidth: 40}); err == nil {
		t.Error("expected error for invalid configuration")
	}
	if generator.GetConfiguration() != config {
		t.Error("invalid configuration replaced the current one")
	}
}

func TestConsoleReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Currency = "USD"
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"STATEMENT EXTRACTION REPORT",
		"=== march.csv ===",
		"$1,500.50",
		"$50,000.00",
		"$48,499.50",
		"Period:          2024-03-15 to 2024-03-17",
		"Balance lines: 1",
		"Encoding:        utf-8",
		"=== scan.pdf ===",
		"Code:       extraction_failed",
		"Stage:      extraction",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console report missing %q\n%s", want, out)
		}
	}
}

func TestConsoleReportMaxItems(t *testing.T) {
	config := DefaultReportConfig()
	config.MaxItems = 1
	generator, _ := NewReportGenerator(config)

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), "... and 2 more") {
		t.Errorf("expected truncation notice, got:\n%s", buf.String())
	}
}

func TestJSONReport(t *testing.T) {
	generator, _ := NewReportGenerator(&ReportConfig{
		Format:              FormatJSON,
		Currency:            "INR",
		IncludeTransactions: true,
		DescriptionWidth:    40,
	})

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	var decoded struct {
		Files []struct {
			Filename     string `json:"filename"`
			Status       string `json:"status"`
			Transactions []struct {
				OccurredOn  string  `json:"occurred_on"`
				Description string  `json:"description"`
				Amount      *string `json:"amount"`
				Direction   *string `json:"direction"`
				Balance     *string `json:"balance"`
			} `json:"transactions"`
			Diagnostics *json.RawMessage `json:"diagnostics"`
			Error       *struct {
				Code  string `json:"code"`
				Stage string `json:"stage"`
			} `json:"error"`
		} `json:"files"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if len(decoded.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(decoded.Files))
	}
	first := decoded.Files[0]
	if first.Status != "success" || len(first.Transactions) != 3 {
		t.Fatalf("unexpected first file: %+v", first)
	}
	if first.Diagnostics != nil {
		t.Errorf("diagnostics should be omitted when disabled")
	}

	bf := first.Transactions[0]
	if bf.Amount != nil || bf.Direction != nil {
		t.Errorf("brought-forward line must have null amount and direction, got %v %v", bf.Amount, bf.Direction)
	}
	if bf.Balance == nil || *bf.Balance != "10000.00" {
		t.Errorf("expected balance 10000.00, got %v", bf.Balance)
	}

	debit := first.Transactions[1]
	if debit.OccurredOn != "2024-03-16" || *debit.Amount != "1500.50" || *debit.Direction != "debit" {
		t.Errorf("unexpected debit row: %+v", debit)
	}

	second := decoded.Files[1]
	if second.Status != "error" || second.Error == nil || second.Error.Code != "extraction_failed" {
		t.Errorf("unexpected second file: %+v", second)
	}
}

func TestCSVReport(t *testing.T) {
	generator, _ := NewReportGenerator(&ReportConfig{Format: FormatCSV, Currency: "INR", DescriptionWidth: 40})

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "file,date,description,amount,direction,balance" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "march.csv,2024-03-15,Opening Balance,,,10000.00" {
		t.Errorf("unexpected brought-forward row: %s", lines[1])
	}
	if lines[3] != `march.csv,2024-03-17,"Salary, March",50000.00,credit,` {
		t.Errorf("unexpected credit row: %s", lines[3])
	}
}

func TestGenerateReportNilResults(t *testing.T) {
	generator, _ := NewReportGenerator(nil)
	if err := generator.GenerateReport(nil, io.Discard); err == nil {
		t.Error("expected error for nil results")
	}
}

func TestSafeReportGenerator(t *testing.T) {
	log, _ := logger.NewWithWriter(io.Discard, logger.ErrorLevel, logger.TextFormat)
	srg, err := NewSafeReportGenerator(&ReportConfig{Format: FormatJSON, Currency: "INR", DescriptionWidth: 40}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = srg.GenerateReportSafely(sampleResults(), nil)
	if !errors.HasCode(err, errors.CodeMissingField) {
		t.Errorf("expected missing_field error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "report.json")
	if err := srg.WriteReportFile(sampleResults(), path); err != nil {
		t.Fatalf("WriteReportFile failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !strings.Contains(string(content), `"status": "error"`) {
		t.Errorf("unexpected report content:\n%s", content)
	}

	_, err = NewSafeReportGenerator(&ReportConfig{Format: "yaml"}, log)
	if !errors.HasCode(err, errors.CodeInvalidConfig) {
		t.Errorf("expected invalid_config error, got %v", err)
	}
}

func TestGenerateBackupPath(t *testing.T) {
	got := generateBackupPath(filepath.Join("reports", "march.json"))
	want := filepath.Join("reports", "march_backup.json")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
