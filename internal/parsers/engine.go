// Package parsers turns raw statement files into normalized transactions.
//
// Each supported format has its own pipeline:
//   - CSV: encoding and delimiter discovery, then tabular extraction
//   - Excel: first sheet of an .xlsx or .xls workbook, then tabular extraction
//   - PDF: grid tables per page, then a cascade of text strategies
//
// Tabular extraction shares one Column Role Mapper, one Row Parser with its
// amount policy chain, and one Validation Gate. All vocabularies come from
// an immutable compiled Config held by an Engine, which is safe for
// concurrent use.
package parsers

import (
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

// vocabulary is the compiled, read-only form of Config
type vocabulary struct {
	roleKeywords   [roleCount][]string
	layouts        []string
	credit         *keywordMatcher
	broughtForward *keywordMatcher
	skip           *keywordMatcher
	tableHeader    *keywordMatcher
	patterns       textPatterns
	placeholder    string
	encodings      []string
	delimiters     []rune

	dateSampleRows    int
	headerSearchLines int
	tableHeaderRows   int
	pageWorkers       int
}

func compile(cfg *Config) *vocabulary {
	v := &vocabulary{
		layouts:           append([]string(nil), cfg.DateLayouts...),
		credit:            newKeywordMatcher(cfg.CreditKeywords),
		broughtForward:    newKeywordMatcher(cfg.BroughtForwardMarkers),
		skip:              newKeywordMatcher(cfg.SkipMarkers),
		patterns:          compileTextPatterns(cfg.BroughtForwardMarkers),
		placeholder:       cfg.Placeholder,
		encodings:         append([]string(nil), cfg.Encodings...),
		dateSampleRows:    cfg.DateSampleRows,
		headerSearchLines: cfg.HeaderSearchLines,
		tableHeaderRows:   cfg.TableHeaderRows,
		pageWorkers:       cfg.PageWorkers,
	}

	for name, keywords := range cfg.RoleKeywords {
		role, _ := ParseRole(name)
		for _, kw := range keywords {
			if n := normalizeHeader(kw); n != "" {
				v.roleKeywords[role] = append(v.roleKeywords[role], n)
			}
		}
	}

	var header []string
	for _, kw := range cfg.TableHeaderKeywords {
		if n := normalizeHeader(kw); n != "" {
			header = append(header, n)
		}
	}
	v.tableHeader = newKeywordMatcher(header)

	for _, d := range cfg.Delimiters {
		v.delimiters = append(v.delimiters, []rune(d)[0])
	}
	return v
}

// headerScore counts the distinct header keywords present in a row
func (v *vocabulary) headerScore(row []string) int {
	seen := make(map[string]bool)
	for _, c := range row {
		for _, kw := range v.tableHeader.Matches(normalizeHeader(c)) {
			seen[kw] = true
		}
	}
	return len(seen)
}

// Engine runs the format pipelines against one compiled vocabulary
type Engine struct {
	vocab    *vocabulary
	logger   logger.Logger
	backends []pageSource
}

// NewEngine validates and compiles cfg. A nil cfg selects DefaultConfig.
func NewEngine(cfg *Config, log logger.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "parser", err.Error(), err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	e := &Engine{
		vocab:    compile(cfg),
		logger:   log.WithComponent("parsers"),
		backends: defaultPageSources(),
	}

	e.logger.WithFields(logger.Fields{
		"date_layouts": len(cfg.DateLayouts),
		"encodings":    cfg.Encodings,
		"page_workers": cfg.PageWorkers,
	}).Debug("Created parser engine")

	return e, nil
}

// MapRoles assigns column roles to a header row
func (e *Engine) MapRoles(headers []string) ColumnRoleMap {
	return e.vocab.mapRoles(headers)
}
