package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	out     io.Writer
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler writing to out
func NewCLIErrorHandler(out io.Writer, verbose bool) *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		out:     out,
		verbose: verbose,
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if summary, ok := err.(*errors.ErrorSummary); ok {
		return h.handleSummary(summary)
	}
	if ingestErr, ok := errors.AsIngestError(err); ok {
		return h.handleIngestError(ingestErr)
	}
	return h.handleGenericError(err)
}

// handleSummary reports a batch where some files failed. The per-file
// details are already in the report.
func (h *CLIErrorHandler) handleSummary(summary *errors.ErrorSummary) int {
	if summary.Total == 1 {
		return h.handleIngestError(summary.Errors[0])
	}

	fmt.Fprintf(h.out, "Error: %d file(s) failed\n", summary.Total)

	codes := make([]string, 0, len(summary.ByCode))
	for code, count := range summary.ByCode {
		codes = append(codes, fmt.Sprintf("  %s: %d", code, count))
	}
	sort.Strings(codes)
	fmt.Fprintf(h.out, "%s\n", strings.Join(codes, "\n"))

	if h.verbose {
		for _, e := range summary.SampleErrors {
			fmt.Fprintf(h.out, "  - %s\n", e.Error())
		}
	}

	return summary.GetExitCode()
}

// handleIngestError handles IngestError with detailed context
func (h *CLIErrorHandler) handleIngestError(err *errors.IngestError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)
	if stage := err.Stage(); stage != "" {
		fmt.Fprintf(h.out, "Stage: %s\n", stage)
	}

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles errors outside the taxonomy, mostly cobra
// argument and flag errors
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if h.isDiskFullError(err) {
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'normalizer --help' for usage.\n")
	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Raise --max-file-size-mb for large statements`

	case errors.CategoryFormat:
		return `Format error help:
• Only .csv, .xlsx, .xls and .pdf statements are supported
• Re-export the statement from online banking if the file is damaged
• Scanned PDFs without a text layer cannot be read`

	case errors.CategoryExtraction:
		return `Extraction error help:
• Check that the statement has a date column or dated lines
• Try a bank profile with --profile (see 'normalizer profiles')
• Run with --verbose --log-level debug to see per-page strategies`

	case errors.CategoryValidation:
		return `Validation error help:
• Check the allowed file types (--allowed-file-types)
• Make sure the file is not empty`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and NORMALIZER_ environment variables
• Verify configuration file syntax if using --config
• Use 'normalizer extract --help' to see all available options`

	default:
		return `For more help:
• Use 'normalizer --help' for general help
• Use 'normalizer extract --help' for command-specific help
• Run with --verbose for the underlying error`
	}
}

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
