package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"golang-statement-normalizer/internal/ingest"
	"golang-statement-normalizer/internal/parsers"
	"golang-statement-normalizer/internal/reporter"
	"golang-statement-normalizer/internal/validator"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

// Options are the resolved command-line, environment and config file
// settings for one extract run
type Options struct {
	OutputFormat     string
	OutputFile       string
	Profile          string
	MaxFileSizeMB    int
	AllowedFileTypes []string
	Workers          int
	Currency         string
	MetricsFile      string
	CreditKeywords   []string
	MaxItems         int
	IncludeDiag      bool
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() *Options {
	return &Options{
		OutputFormat:     string(reporter.FormatConsole),
		Profile:          "generic",
		MaxFileSizeMB:    validator.DefaultMaxFileSizeMB,
		AllowedFileTypes: append([]string(nil), validator.DefaultAllowedTypes...),
		Workers:          4,
		Currency:         "INR",
		IncludeDiag:      true,
	}
}

// LoadEnv loads the given .env files into the process environment.
// Missing files are skipped; a malformed file is an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "env_file", f, err).
				WithSuggestion("Check the KEY=value syntax of the .env file")
		}
	}
	return nil
}

// CreateParserConfig builds the vocabulary for a profile. Extra credit
// keywords are appended to the profile's list.
func CreateParserConfig(base *parsers.Config, profile string, creditKeywords []string) (*parsers.Config, error) {
	if base == nil {
		base = parsers.DefaultConfig()
	}
	if strings.TrimSpace(profile) == "" {
		profile = "generic"
	}

	cfg, err := base.ApplyProfile(profile)
	if err != nil {
		return nil, err
	}

	for _, kw := range creditKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !contains(cfg.CreditKeywords, kw) {
			cfg.CreditKeywords = append(cfg.CreditKeywords, kw)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "parser", profile, err)
	}
	return cfg, nil
}

// CreateValidatorConfig builds the upload pre-check settings
func CreateValidatorConfig(maxFileSizeMB int, allowedTypes []string) (*validator.Config, error) {
	cfg := validator.DefaultConfig()
	if maxFileSizeMB != 0 {
		cfg.MaxFileSizeMB = maxFileSizeMB
	}
	if len(allowedTypes) > 0 {
		cfg.AllowedTypes = allowedTypes
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "validator", cfg, err).
			WithSuggestion("Use a positive --max-file-size-mb and a non-empty --allowed-file-types")
	}
	return cfg, nil
}

// CreateProcessorConfig combines the parser, validator and worker settings
func CreateProcessorConfig(base *parsers.Config, opts *Options) (*ingest.Config, error) {
	parserCfg, err := CreateParserConfig(base, opts.Profile, opts.CreditKeywords)
	if err != nil {
		return nil, err
	}
	validatorCfg, err := CreateValidatorConfig(opts.MaxFileSizeMB, opts.AllowedFileTypes)
	if err != nil {
		return nil, err
	}

	return &ingest.Config{
		Parser:    parserCfg,
		Validator: validatorCfg,
		Workers:   opts.Workers,
	}, nil
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(opts *Options) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(strings.ToLower(opts.OutputFormat))
	config.Currency = strings.ToUpper(opts.Currency)
	config.MaxItems = opts.MaxItems
	// CSV carries transaction rows only
	config.IncludeDiagnostics = opts.IncludeDiag && config.Format != reporter.FormatCSV

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", opts.OutputFormat, err).
			WithSuggestion("Valid output formats: console, json, csv")
	}
	return config, nil
}

// CreateLoggerConfig maps the log flags onto a logger configuration.
// verbose forces debug level.
func CreateLoggerConfig(level, format string, verbose bool) (*logger.Config, error) {
	config := logger.DefaultConfig()

	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log-level", level, err)
	}
	if strings.TrimSpace(level) != "" {
		config.Level = lvl
	}
	if verbose {
		config.Level = logger.DebugLevel
	}

	if format != "" {
		config.Format = logger.Format(strings.ToLower(format))
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log-format", format, err)
	}
	return config, nil
}

// ValidateOptions checks the options that are not validated by the
// package configs themselves
func ValidateOptions(opts *Options) error {
	if !reporter.OutputFormat(strings.ToLower(opts.OutputFormat)).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", opts.OutputFormat,
			fmt.Errorf("invalid output format '%s'", opts.OutputFormat)).
			WithSuggestion("Valid output formats: console, json, csv")
	}
	if opts.Workers <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "workers", opts.Workers,
			fmt.Errorf("workers must be positive")).
			WithSuggestion("Set --workers to 1 or more")
	}
	if opts.MaxItems < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max-items", opts.MaxItems,
			fmt.Errorf("max items cannot be negative"))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
