package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang-statement-normalizer/internal/reporter"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

func TestCreateParserConfig(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		credits     []string
		expectCode  errors.ErrorCode
		firstLayout string
	}{
		{name: "empty profile means generic", profile: "", firstLayout: "02/01/2006"},
		{name: "hdfc", profile: "HDFC", firstLayout: "02/01/06"},
		{name: "sbi with extra keywords", profile: "sbi", credits: []string{" NEFT IN ", "salary"}, firstLayout: "02 Jan 2006"},
		{name: "unknown profile", profile: "acme", expectCode: errors.CodeUnknownProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := CreateParserConfig(nil, tt.profile, tt.credits)
			if tt.expectCode != "" {
				if !errors.HasCode(err, tt.expectCode) {
					t.Errorf("expected %s, got %v", tt.expectCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DateLayouts[0] != tt.firstLayout {
				t.Errorf("expected first layout %q, got %q", tt.firstLayout, cfg.DateLayouts[0])
			}
		})
	}
}

func TestCreateParserConfigAddsCreditKeywordsOnce(t *testing.T) {
	cfg, err := CreateParserConfig(nil, "generic", []string{"NEFT IN", "salary", "neft in", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := map[string]int{}
	for _, kw := range cfg.CreditKeywords {
		count[kw]++
	}
	if count["neft in"] != 1 {
		t.Errorf("expected 'neft in' once, got %d", count["neft in"])
	}
	if count["salary"] != 1 {
		t.Errorf("expected 'salary' once, got %d", count["salary"])
	}
	if count[""] != 0 {
		t.Error("blank keyword must be skipped")
	}
}

func TestCreateValidatorConfig(t *testing.T) {
	cfg, err := CreateValidatorConfig(0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxFileSizeMB != 10 || len(cfg.AllowedTypes) != 4 {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	cfg, err = CreateValidatorConfig(25, []string{"pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxFileSizeMB != 25 || len(cfg.AllowedTypes) != 1 {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	if _, err := CreateValidatorConfig(-5, nil); !errors.HasCode(err, errors.CodeInvalidConfig) {
		t.Errorf("expected invalid_config, got %v", err)
	}
}

func TestCreateProcessorConfig(t *testing.T) {
	opts := DefaultOptions()
	opts.Profile = "icici"
	opts.Workers = 2

	cfg, err := CreateProcessorConfig(nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Workers)
	}
	if cfg.Parser == nil || cfg.Validator == nil {
		t.Fatal("expected parser and validator configs")
	}

	opts.Profile = "nope"
	if _, err := CreateProcessorConfig(nil, opts); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		currency    string
		expectError bool
		expectDiag  bool
	}{
		{name: "console", format: "console", currency: "inr", expectDiag: true},
		{name: "json upper case", format: "JSON", currency: "USD", expectDiag: true},
		{name: "csv drops diagnostics", format: "csv", currency: "EUR", expectDiag: false},
		{name: "bad format", format: "xml", currency: "INR", expectError: true},
		{name: "bad currency", format: "json", currency: "QQQ", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.OutputFormat = tt.format
			opts.Currency = tt.currency

			cfg, err := CreateReportConfig(opts)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !cfg.Format.IsValid() {
				t.Errorf("invalid format %s", cfg.Format)
			}
			if cfg.IncludeDiagnostics != tt.expectDiag {
				t.Errorf("expected IncludeDiagnostics %v, got %v", tt.expectDiag, cfg.IncludeDiagnostics)
			}
		})
	}

	cfg, _ := CreateReportConfig(&Options{OutputFormat: "csv", Currency: "inr"})
	if cfg.Format != reporter.FormatCSV || cfg.Currency != "INR" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		verbose     bool
		want        logger.Level
		expectError bool
	}{
		{name: "defaults", want: logger.WarnLevel},
		{name: "info json", level: "INFO", format: "json", want: logger.InfoLevel},
		{name: "verbose wins", level: "error", verbose: true, want: logger.DebugLevel},
		{name: "bad level", level: "loud", expectError: true},
		{name: "bad format", format: "xml", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := CreateLoggerConfig(tt.level, tt.format, tt.verbose)
			if tt.expectError {
				if !errors.HasCode(err, errors.CodeInvalidConfig) {
					t.Errorf("expected invalid_config, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Level != tt.want {
				t.Errorf("expected level %s, got %s", tt.want, cfg.Level)
			}
		})
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Options)
		expectError bool
	}{
		{name: "defaults", modify: func(*Options) {}},
		{name: "bad format", modify: func(o *Options) { o.OutputFormat = "yaml" }, expectError: true},
		{name: "zero workers", modify: func(o *Options) { o.Workers = 0 }, expectError: true},
		{name: "negative max items", modify: func(o *Options) { o.MaxItems = -1 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(opts)
			err := ValidateOptions(opts)
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("NORMALIZER_TEST_CURRENCY=EUR\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("NORMALIZER_TEST_CURRENCY") })

	if err := LoadEnv(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("NORMALIZER_TEST_CURRENCY"); got != "EUR" {
		t.Errorf("expected EUR, got %q", got)
	}
}
