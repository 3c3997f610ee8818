// Package ingest is the entry point for statement files: it validates an
// upload, dispatches it to the pipeline for its extension and records
// timing and metrics.
//
// Example usage:
//
//	p, err := ingest.NewProcessor(ingest.DefaultConfig(), metrics.New(), log)
//	outcome, err := p.ProcessFile(ctx, data, "march.pdf")
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"golang-statement-normalizer/internal/metrics"
	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/internal/parsers"
	"golang-statement-normalizer/internal/validator"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

// Config wires the parser vocabulary, the upload pre-checks and the batch
// concurrency together
type Config struct {
	Parser    *parsers.Config
	Validator *validator.Config
	Workers   int
}

// DefaultConfig returns the default vocabulary, a 10 MB ceiling and four
// batch workers
func DefaultConfig() *Config {
	return &Config{
		Parser:    parsers.DefaultConfig(),
		Validator: validator.DefaultConfig(),
		Workers:   4,
	}
}

// Processor routes files to the CSV, Excel or PDF pipeline. It is safe
// for concurrent use.
type Processor struct {
	engine    *parsers.Engine
	validator *validator.Validator
	metrics   *metrics.Metrics
	logger    logger.Logger
	workers   int
}

// NewProcessor builds the engine and validator from cfg. m may be nil.
func NewProcessor(cfg *Config, m *metrics.Metrics, log logger.Logger) (*Processor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if cfg.Workers <= 0 {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "workers", cfg.Workers, nil).
			WithSuggestion("Set workers to a positive number")
	}

	engine, err := parsers.NewEngine(cfg.Parser, log)
	if err != nil {
		return nil, err
	}
	v, err := validator.New(cfg.Validator)
	if err != nil {
		return nil, err
	}

	return &Processor{
		engine:    engine,
		validator: v,
		metrics:   m,
		logger:    log.WithComponent("processor"),
		workers:   cfg.Workers,
	}, nil
}

// FormatOf returns the pipeline name for filename's extension, or "" when
// no pipeline handles it
func FormatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xls":
		return "excel"
	case ".pdf":
		return "pdf"
	}
	return ""
}

// ProcessFile validates data and runs the pipeline for filename's
// extension. Exactly one of the return values is non-nil.
func (p *Processor) ProcessFile(ctx context.Context, data []byte, filename string) (outcome *models.ExtractionOutcome, err error) {
	format := FormatOf(filename)
	op := logger.NewOperationLogger("process_file", p.logger).
		WithField("file", filename).
		WithField("format", format).
		WithField("size", len(data))

	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = errors.InternalError(errors.CodeUnexpectedError, "process_file", fmt.Errorf("panic: %v", r)).
				WithContext("file", filename)
		}
		if err != nil {
			p.metrics.ObserveFailure(format, op.Elapsed())
			op.Error(err, "Failed to process statement")
		}
	}()

	op.Step("validate")
	if res := p.validator.Validate(data, filename); !res.Valid {
		return nil, res.Err()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "process_file", ctxErr)
	}

	op.Step("extract")
	switch format {
	case "csv":
		outcome, err = p.engine.ParseCSV(data, filename)
	case "excel":
		outcome, err = p.engine.ParseExcel(data, filename)
	case "pdf":
		outcome, err = p.engine.ParsePDF(ctx, data, filename)
	default:
		err = errors.UnsupportedFormat(filename, filepath.Ext(filename))
	}
	if err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "statement extraction failed")
	}

	outcome.Diagnostics.Duration = op.Elapsed()
	p.metrics.ObserveOutcome(outcome)
	op.WithField("transactions", len(outcome.Transactions)).
		WithField("rejected", outcome.Diagnostics.Rejected()).
		Success("Processed statement")

	return outcome, nil
}

// FileResult is the result for one path of a batch
type FileResult struct {
	Path    string
	Outcome *models.ExtractionOutcome
	Err     error
}

// ProcessFiles reads and processes paths concurrently. Results are
// returned in input order and each carries its own outcome or error.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "process_files",
		Total:     int64(len(paths)),
		Logger:    p.logger,
	})

	workers := pool.New().WithMaxGoroutines(p.workers)
	for i, path := range paths {
		workers.Go(func() {
			res := FileResult{Path: path}
			data, err := p.readFile(path)
			if err == nil {
				res.Outcome, err = p.ProcessFile(ctx, data, filepath.Base(path))
			}
			res.Err = err
			results[i] = res
			tracker.Record(err != nil)
		})
	}
	workers.Wait()
	tracker.Complete()

	return results
}

// readFile refuses files above the size ceiling before reading them
func (p *Processor) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fileError(path, err)
	}
	if info.IsDir() {
		return nil, errors.FileError(errors.CodeFileNotFound, path, fmt.Errorf("%s is a directory", path))
	}
	if limit := p.validator.MaxBytes(); info.Size() > limit {
		return nil, errors.FileTooLarge(path, info.Size(), limit)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError(path, err)
	}
	return data, nil
}

func fileError(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return errors.FileError(errors.CodeFileNotFound, path, err)
	case os.IsPermission(err):
		return errors.FileError(errors.CodeFilePermission, path, err)
	default:
		return errors.FileError(errors.CodeFileNotFound, path, err)
	}
}

// Failures collects the typed errors of a batch, or nil when every file
// succeeded
func Failures(results []FileResult) *errors.ErrorSummary {
	var errs []*errors.IngestError
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		errs = append(errs, errors.WrapIfNeeded(r.Err, errors.CategoryInternal, errors.CodeUnexpectedError, "statement processing failed"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.NewErrorSummary(errs)
}
