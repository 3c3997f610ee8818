package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang-statement-normalizer/internal/ingest"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with input checks and
// fallbacks for failed output
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the output format and currency settings")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely generates a report, falling back to the console
// format when a structured format fails
func (srg *SafeReportGenerator) GenerateReportSafely(results []ingest.FileResult, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"files":  len(results),
		"output": getWriterDescription(writer),
	}).Debug("Starting report generation")

	if writer == nil {
		return errors.ValidationError(errors.CodeMissingField, "writer", nil, nil).
			WithSuggestion("Provide a valid output writer")
	}
	if results == nil {
		return errors.ValidationError(errors.CodeMissingField, "results", nil, nil).
			WithSuggestion("Process at least one statement before reporting")
	}

	err := srg.GenerateReport(results, writer)
	if err == nil {
		return nil
	}
	srg.logger.WithError(err).Warn("Primary report generation failed, attempting fallback")

	if srg.config.Format == FormatConsole {
		return srg.wrapGenerationError(err)
	}
	return srg.generateWithFormatFallback(results, writer, err)
}

func (srg *SafeReportGenerator) generateWithFormatFallback(results []ingest.FileResult, writer io.Writer, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in console format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := fallbackGenerator.GenerateReport(results, writer); err != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err),
		)
	}

	srg.logger.Info("Report generated using format fallback")
	return nil
}

// WriteReportFile writes the report to path. When path cannot be created
// the report goes to a backup file beside it, then to stdout.
func (srg *SafeReportGenerator) WriteReportFile(results []ingest.FileResult, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			srg.logger.WithError(err).WithField("dir", dir).Warn("Could not create output directory")
		}
	}

	file, err := os.Create(path)
	if err == nil {
		defer file.Close()
		return srg.GenerateReportSafely(results, file)
	}
	if !isFileError(err) {
		return srg.wrapGenerationError(err)
	}

	backupPath := generateBackupPath(path)
	srg.logger.WithFields(logger.Fields{
		"original_file": path,
		"backup_file":   backupPath,
	}).Warn("Attempting output fallback")

	backup, backupErr := os.Create(backupPath)
	if backupErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not write to %s or %s, writing report to stdout\n", path, backupPath)
		return srg.GenerateReportSafely(results, os.Stdout)
	}
	defer backup.Close()

	fmt.Fprintf(os.Stderr, "Warning: could not write to %s, report saved to %s\n", path, backupPath)
	return srg.GenerateReportSafely(results, backup)
}

func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if ingestErr, ok := errors.AsIngestError(err); ok {
		return ingestErr
	}

	return errors.InternalError(
		errors.CodeUnexpectedError,
		"report_generation",
		err,
	).WithSuggestion("Check the output destination and report format settings")
}

func isFileError(err error) bool {
	return os.IsPermission(err) || os.IsNotExist(err) || os.IsExist(err) || isSpaceError(err)
}

func generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left") ||
		strings.Contains(msg, "disk full") ||
		strings.Contains(msg, "device full")
}
