// Package validator performs the cheap pre-checks run on an upload before
// any pipeline touches its bytes: allowed file type, size ceiling and
// emptiness.
package validator

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang-statement-normalizer/pkg/errors"
)

// DefaultMaxFileSizeMB is the size ceiling used when none is configured
const DefaultMaxFileSizeMB = 10

// DefaultAllowedTypes lists the extensions a pipeline exists for
var DefaultAllowedTypes = []string{"csv", "xlsx", "xls", "pdf"}

// Config controls the checks
type Config struct {
	AllowedTypes  []string `mapstructure:"allowed_file_types" json:"allowed_file_types"`
	MaxFileSizeMB int      `mapstructure:"max_file_size_mb" json:"max_file_size_mb"`
}

// DefaultConfig returns the default allow-list and size ceiling
func DefaultConfig() *Config {
	return &Config{
		AllowedTypes:  append([]string(nil), DefaultAllowedTypes...),
		MaxFileSizeMB: DefaultMaxFileSizeMB,
	}
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxFileSizeMB)
	}
	if len(c.AllowedTypes) == 0 {
		return fmt.Errorf("at least one file type must be allowed")
	}
	for _, t := range c.AllowedTypes {
		if normalizeType(t) == "" {
			return fmt.Errorf("empty file type in allow-list")
		}
	}
	return nil
}

// MaxBytes returns the size ceiling in bytes
func (c *Config) MaxBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// Issue is a single validation finding
type Issue struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Result is the outcome of validating one upload
type Result struct {
	Filename string  `json:"filename"`
	Valid    bool    `json:"valid"`
	FileType string  `json:"file_type"`
	FileSize int64   `json:"file_size"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`

	err *errors.IngestError
}

// Err returns the first failed check as a typed error, or nil
func (r *Result) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

func (r *Result) fail(err *errors.IngestError) {
	r.Valid = false
	r.Errors = append(r.Errors, Issue{Code: err.Code, Message: err.Message})
	if r.err == nil {
		r.err = err
	}
}

func (r *Result) warn(code errors.ErrorCode, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Validator applies one Config to many uploads
type Validator struct {
	config  *Config
	allowed map[string]bool
}

// New creates a validator. A nil config selects DefaultConfig.
func New(cfg *Config) (*Validator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "validator", err.Error(), err)
	}

	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[normalizeType(t)] = true
	}
	return &Validator{config: cfg, allowed: allowed}, nil
}

// MaxBytes returns the configured size ceiling in bytes
func (v *Validator) MaxBytes() int64 {
	return v.config.MaxBytes()
}

// Validate checks data and filename against the allow-list, the size
// ceiling and emptiness. Every failed check is reported.
func (v *Validator) Validate(data []byte, filename string) Result {
	r := Result{
		Filename: filename,
		Valid:    true,
		FileType: FileType(filename),
		FileSize: int64(len(data)),
	}

	if !v.allowed[r.FileType] {
		r.fail(errors.UnsupportedFormat(filename, filepath.Ext(filename)))
	}

	if limit := v.config.MaxBytes(); r.FileSize > limit {
		r.fail(errors.FileTooLarge(filename, r.FileSize, limit))
	} else if r.FileSize > limit*9/10 {
		r.warn(errors.CodeFileTooLarge, "file is within 10%% of the %d MB limit", v.config.MaxFileSizeMB)
	}

	if r.FileSize == 0 {
		r.fail(errors.FileError(errors.CodeEmptyFile, filename, nil))
	}

	if r.Valid && r.FileType == "pdf" && !containsPDFHeader(data) {
		r.warn(errors.CodeDecodeError, "no %%PDF header found in the first 1024 bytes")
	}

	return r
}

// FileType returns the lowercased extension of filename without the dot
func FileType(filename string) string {
	return normalizeType(filepath.Ext(filename))
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
}

func containsPDFHeader(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return strings.Contains(string(head), "%PDF")
}
