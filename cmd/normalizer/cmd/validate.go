package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-statement-normalizer/cmd/normalizer/config"
	"golang-statement-normalizer/internal/validator"
	"golang-statement-normalizer/pkg/errors"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate FILE [FILE...]",
	Short: "Run the upload pre-checks without extracting",
	Long: `Validate checks each file against the allowed types, the size ceiling and
emptiness, the same checks extract runs before any pipeline reads a file.

Examples:
  normalizer validate march.csv statement.pdf
  normalizer validate big.pdf --max-file-size-mb 25
  normalizer validate *.xlsx --output-format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	defaults := config.DefaultOptions()
	validateCmd.Flags().StringP("output-format", "f", "console", "output format: console, json")
	validateCmd.Flags().Int("max-file-size-mb", defaults.MaxFileSizeMB, "largest accepted file in megabytes")
	validateCmd.Flags().StringSlice("allowed-file-types", defaults.AllowedFileTypes, "accepted file extensions")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format := viper.GetString("output-format")
	if format != "console" && format != "json" {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", format,
			fmt.Errorf("invalid output format '%s'", format)).
			WithSuggestion("Valid formats for validate: console, json")
	}

	cfg, err := config.CreateValidatorConfig(viper.GetInt("max-file-size-mb"), viper.GetStringSlice("allowed-file-types"))
	if err != nil {
		return err
	}
	v, err := validator.New(cfg)
	if err != nil {
		return err
	}

	var failures []*errors.IngestError
	results := make([]validator.Result, 0, len(args))
	for _, path := range args {
		res, err := validatePath(v, path)
		if err != nil {
			failures = append(failures, err)
			res = validator.Result{
				Filename: path,
				Errors:   []validator.Issue{{Code: err.Code, Message: err.Message}},
			}
		} else if fail := res.Err(); fail != nil {
			failures = append(failures, errors.WrapIfNeeded(fail, errors.CategoryValidation, errors.CodeInvalidFileType, "validation failed"))
		}
		results = append(results, res)
	}

	if format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return errors.InternalError(errors.CodeUnexpectedError, "validate_output", err)
		}
	} else {
		printValidation(cmd.OutOrStdout(), results)
	}

	if len(failures) > 0 {
		return errors.NewErrorSummary(failures)
	}
	return nil
}

// validatePath reads path and validates its contents. Errors reading the
// file are returned directly.
func validatePath(v *validator.Validator, path string) (validator.Result, *errors.IngestError) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return validator.Result{}, errors.FileError(errors.CodeFileNotFound, path, err)
	case os.IsPermission(err):
		return validator.Result{}, errors.FileError(errors.CodeFilePermission, path, err)
	case err != nil:
		return validator.Result{}, errors.FileError(errors.CodeFileNotFound, path, err)
	case info.IsDir():
		return validator.Result{}, errors.FileError(errors.CodeFileNotFound, path, fmt.Errorf("%s is a directory", path))
	case info.Size() > v.MaxBytes():
		return validator.Result{}, errors.FileTooLarge(path, info.Size(), v.MaxBytes())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return validator.Result{}, errors.FileError(errors.CodeFilePermission, path, err)
	}

	res := v.Validate(data, filepath.Base(path))
	res.Filename = path
	return res, nil
}

func printValidation(w io.Writer, results []validator.Result) {
	for _, r := range results {
		status := "OK  "
		if len(r.Errors) > 0 {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s %s", status, r.Filename)
		if r.FileType != "" {
			fmt.Fprintf(w, " (%s, %d bytes)", r.FileType, r.FileSize)
		}
		fmt.Fprintln(w)

		for _, issue := range r.Errors {
			fmt.Fprintf(w, "     error   %-18s %s\n", issue.Code, issue.Message)
		}
		for _, issue := range r.Warnings {
			fmt.Fprintf(w, "     warning %-18s %s\n", issue.Code, issue.Message)
		}
	}
}
