package ingest

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-statement-normalizer/internal/fixtures"
	"golang-statement-normalizer/internal/metrics"
	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

const sampleCSV = "Date,Description,Debit,Credit,Balance\n" +
	"15/03/2024,Opening Balance,,,10000.00\n" +
	"16/03/2024,ATM Withdrawal,500.00,,9500.00\n" +
	"17/03/2024,SALARY,,50000.00,59500.00\n"

func newTestProcessor(t *testing.T, m *metrics.Metrics) *Processor {
	t.Helper()
	log, err := logger.NewWithWriter(io.Discard, logger.ErrorLevel, logger.TextFormat)
	require.NoError(t, err)
	p, err := NewProcessor(nil, m, log)
	require.NoError(t, err)
	return p
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.csv", "csv"},
		{"A.CSV", "csv"},
		{"book.xlsx", "excel"},
		{"old.XLS", "excel"},
		{"scan.Pdf", "pdf"},
		{"notes.txt", ""},
		{"noext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOf(tt.filename))
		})
	}
}

func TestProcessFile(t *testing.T) {
	m := metrics.New()
	p := newTestProcessor(t, m)

	outcome, err := p.ProcessFile(context.Background(), []byte(sampleCSV), "March.CSV")
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, "csv", outcome.Diagnostics.Format)
	assert.Len(t, outcome.Transactions, 3)
	assert.Positive(t, outcome.Diagnostics.Duration)

	summary := outcome.Summary()
	assert.Equal(t, 1, summary.BroughtForward)
	assert.Equal(t, 1, summary.Debits)
	assert.Equal(t, 1, summary.Credits)
}

func TestProcessFileErrors(t *testing.T) {
	p := newTestProcessor(t, nil)

	tests := []struct {
		name     string
		filename string
		data     []byte
		code     errors.ErrorCode
	}{
		{"unsupported", "notes.txt", []byte("hello"), errors.CodeUnsupportedFormat},
		{"empty csv", "empty.csv", nil, errors.CodeEmptyFile},
		{"garbage pdf", "scan.pdf", []byte("not really a pdf"), errors.CodeExtractionFailed},
		{"garbage xlsx", "book.xlsx", []byte("not a zip archive"), errors.CodeDecodeError},
		{"no date column", "x.csv", []byte("Foo,Bar\nalpha,beta\n"), errors.CodeNoDateColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := p.ProcessFile(context.Background(), tt.data, tt.filename)
			assert.Nil(t, outcome)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestProcessFileCancelled(t *testing.T) {
	p := newTestProcessor(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessFile(ctx, []byte(sampleCSV), "a.csv")
	assert.Error(t, err)
}

func TestProcessFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	paths := []string{
		write("one.csv", sampleCSV),
		filepath.Join(dir, "missing.csv"),
		write("two.csv", "Date,Description,Amount\n01/01/2024,Refund,10.00\n"),
		write("three.txt", "plain text"),
		dir,
	}

	p := newTestProcessor(t, nil)
	results := p.ProcessFiles(context.Background(), paths)
	require.Len(t, results, len(paths))

	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
		assert.True(t, (r.Outcome == nil) != (r.Err == nil), "result %d must carry exactly one of outcome or error", i)
	}

	assert.Len(t, results[0].Outcome.Transactions, 3)
	assert.True(t, errors.HasCode(results[1].Err, errors.CodeFileNotFound))
	require.Len(t, results[2].Outcome.Transactions, 1)
	assert.Equal(t, models.DirectionCredit, *results[2].Outcome.Transactions[0].Direction)
	assert.True(t, errors.HasCode(results[3].Err, errors.CodeUnsupportedFormat))
	assert.True(t, errors.HasCode(results[4].Err, errors.CodeFileNotFound))

	summary := Failures(results)
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.GetExitCode())

	assert.Nil(t, Failures(results[:1]))
}

func TestNewProcessorRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	_, err := NewProcessor(cfg, nil, nil)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))

	cfg = DefaultConfig()
	cfg.Validator.MaxFileSizeMB = -1
	_, err = NewProcessor(cfg, nil, nil)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
}

func TestProcessFileGeneratedStatements(t *testing.T) {
	sg := fixtures.DefaultGenerator()
	sg.Count = 120
	lines := sg.Generate()

	var debits, credits int
	for _, l := range lines[1:] {
		if l.Direction == models.DirectionDebit {
			debits++
		} else {
			credits++
		}
	}

	tests := []struct {
		name     string
		filename string
		write    func(w io.Writer) error
	}{
		{"split", "split.csv", func(w io.Writer) error { return fixtures.WriteCSV(w, fixtures.LayoutSplit, lines) }},
		{"signed", "signed.csv", func(w io.Writer) error { return fixtures.WriteCSV(w, fixtures.LayoutSigned, lines) }},
		{"european", "european.csv", func(w io.Writer) error { return fixtures.WriteCSV(w, fixtures.LayoutEuropean, lines) }},
		{"workbook", "book.xlsx", func(w io.Writer) error { return fixtures.WriteXLSX(w, lines) }},
	}

	p := newTestProcessor(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.write(&buf))

			outcome, err := p.ProcessFile(context.Background(), buf.Bytes(), tt.filename)
			require.NoError(t, err)
			require.Len(t, outcome.Transactions, len(lines))

			summary := outcome.Summary()
			assert.Equal(t, 1, summary.BroughtForward)
			assert.Equal(t, debits, summary.Debits)
			assert.Equal(t, credits, summary.Credits)

			for i, txn := range outcome.Transactions {
				want := lines[i]
				assert.True(t, txn.OccurredOn.Equal(want.Date), "line %d date %s", i, txn.OccurredOn)
				require.NotNil(t, txn.Balance, "line %d balance", i)
				assert.True(t, txn.Balance.Equal(want.Balance), "line %d balance %s, want %s", i, txn.Balance, want.Balance)
				if want.Opening {
					continue
				}
				require.NotNil(t, txn.Amount, "line %d amount", i)
				assert.True(t, txn.Amount.Equal(want.Amount), "line %d amount %s, want %s", i, txn.Amount, want.Amount)
				assert.Equal(t, want.Direction, *txn.Direction, "line %d direction", i)
			}
		})
	}
}
