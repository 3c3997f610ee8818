package parsers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/internal/normalize"
)

// Config holds the vocabularies and limits used by every pipeline. It is
// plain data; NewEngine compiles it once and never mutates it afterwards.
type Config struct {
	RoleKeywords          map[string][]string `mapstructure:"role_keywords" json:"role_keywords"`
	DateLayouts           []string            `mapstructure:"date_layouts" json:"date_layouts"`
	CreditKeywords        []string            `mapstructure:"credit_keywords" json:"credit_keywords"`
	BroughtForwardMarkers []string            `mapstructure:"brought_forward_markers" json:"brought_forward_markers"`
	TableHeaderKeywords   []string            `mapstructure:"table_header_keywords" json:"table_header_keywords"`
	SkipMarkers           []string            `mapstructure:"skip_markers" json:"skip_markers"`
	Placeholder           string              `mapstructure:"placeholder" json:"placeholder"`
	Encodings             []string            `mapstructure:"encodings" json:"encodings"`
	Delimiters            []string            `mapstructure:"delimiters" json:"delimiters"`
	DateSampleRows        int                 `mapstructure:"date_sample_rows" json:"date_sample_rows"`
	HeaderSearchLines     int                 `mapstructure:"header_search_lines" json:"header_search_lines"`
	TableHeaderRows       int                 `mapstructure:"table_header_rows" json:"table_header_rows"`
	PageWorkers           int                 `mapstructure:"page_workers" json:"page_workers"`
}

// DefaultConfig returns the built-in vocabulary for Indian and generic
// bank statements.
func DefaultConfig() *Config {
	return &Config{
		RoleKeywords: map[string][]string{
			"date":        {"date", "txn date", "transaction date", "value date", "posted date", "posting date", "txn_date", "dt"},
			"description": {"description", "narration", "particulars", "transaction details", "remarks", "reference", "details"},
			"debit":       {"debit", "debit amount", "withdrawal", "withdrawals", "dr", "debit_amount"},
			"credit":      {"credit", "credit amount", "deposit", "deposits", "cr", "credit_amount"},
			"amount":      {"amount", "transaction amount", "txn amount", "amt"},
			"balance":     {"balance", "available balance", "closing balance", "running balance", "balance_amount"},
		},
		DateLayouts:           append([]string(nil), normalize.DefaultDateLayouts...),
		CreditKeywords:        []string{"deposit", "credit", "salary", "transfer in", "cms", "refund", "interest"},
		BroughtForwardMarkers: []string{"b/f", "brought forward", "opening balance"},
		TableHeaderKeywords: []string{
			"date", "description", "narration", "particulars", "debit", "credit",
			"withdrawal", "deposit", "amount", "balance", "chq", "ref",
		},
		SkipMarkers:       []string{"total", "page", "statement of account"},
		Placeholder:       models.PlaceholderDescription,
		Encodings:         []string{"utf-8", "latin-1", "windows-1252"},
		Delimiters:        []string{",", ";", "\t", "|"},
		DateSampleRows:    5,
		HeaderSearchLines: 20,
		TableHeaderRows:   3,
		PageWorkers:       4,
	}
}

// Validate checks that the configuration can be compiled
func (c *Config) Validate() error {
	for name := range c.RoleKeywords {
		if _, ok := ParseRole(name); !ok {
			return fmt.Errorf("unknown column role %q", name)
		}
	}
	if len(c.RoleKeywords[RoleDate.String()]) == 0 {
		return fmt.Errorf("date role needs at least one keyword")
	}

	if len(c.DateLayouts) == 0 {
		return fmt.Errorf("at least one date layout is required")
	}

	if strings.TrimSpace(c.Placeholder) == "" {
		return fmt.Errorf("placeholder description cannot be empty")
	}

	if len(c.Encodings) == 0 {
		return fmt.Errorf("at least one encoding is required")
	}
	for _, enc := range c.Encodings {
		if _, ok := lookupEncoding(enc); !ok {
			return fmt.Errorf("unsupported encoding %q", enc)
		}
	}

	if len(c.Delimiters) == 0 {
		return fmt.Errorf("at least one delimiter is required")
	}
	for _, d := range c.Delimiters {
		if utf8.RuneCountInString(d) != 1 {
			return fmt.Errorf("delimiter %q must be a single character", d)
		}
	}

	if c.DateSampleRows <= 0 {
		return fmt.Errorf("date sample rows must be positive, got %d", c.DateSampleRows)
	}
	if c.HeaderSearchLines <= 0 {
		return fmt.Errorf("header search lines must be positive, got %d", c.HeaderSearchLines)
	}
	if c.TableHeaderRows <= 0 {
		return fmt.Errorf("table header rows must be positive, got %d", c.TableHeaderRows)
	}
	if c.PageWorkers <= 0 {
		return fmt.Errorf("page workers must be positive, got %d", c.PageWorkers)
	}

	return nil
}

// Clone returns a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	clone.RoleKeywords = make(map[string][]string, len(c.RoleKeywords))
	for role, keywords := range c.RoleKeywords {
		clone.RoleKeywords[role] = append([]string(nil), keywords...)
	}
	clone.DateLayouts = append([]string(nil), c.DateLayouts...)
	clone.CreditKeywords = append([]string(nil), c.CreditKeywords...)
	clone.BroughtForwardMarkers = append([]string(nil), c.BroughtForwardMarkers...)
	clone.TableHeaderKeywords = append([]string(nil), c.TableHeaderKeywords...)
	clone.SkipMarkers = append([]string(nil), c.SkipMarkers...)
	clone.Encodings = append([]string(nil), c.Encodings...)
	clone.Delimiters = append([]string(nil), c.Delimiters...)
	return &clone
}
