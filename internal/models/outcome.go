package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitKind names the unit of a source document that diagnostics are kept for
type UnitKind string

const (
	UnitFile  UnitKind = "file"
	UnitSheet UnitKind = "sheet"
	UnitTable UnitKind = "table"
	UnitPage  UnitKind = "page"
)

// UnitDiagnostics records what happened to one sheet, table or page
type UnitDiagnostics struct {
	Kind       UnitKind `json:"kind"`
	Index      int      `json:"index"`
	Strategy   string   `json:"strategy,omitempty"`
	Candidates int      `json:"candidates"`
	Accepted   int      `json:"accepted"`
	Rejected   int      `json:"rejected"`
}

// Diagnostics is best-effort information about how a file was read
type Diagnostics struct {
	Format    string            `json:"format"`
	Encoding  string            `json:"encoding,omitempty"`
	Delimiter string            `json:"delimiter,omitempty"`
	Backend   string            `json:"backend,omitempty"`
	Units     []UnitDiagnostics `json:"units,omitempty"`
	Duration  time.Duration     `json:"duration"`
}

// AddUnit appends a unit record
func (d *Diagnostics) AddUnit(unit UnitDiagnostics) {
	d.Units = append(d.Units, unit)
}

// Rejected returns the number of candidates dropped across all units
func (d *Diagnostics) Rejected() int {
	total := 0
	for _, u := range d.Units {
		total += u.Rejected
	}
	return total
}

// StrategyCounts returns accepted transactions per strategy name
func (d *Diagnostics) StrategyCounts() map[string]int {
	counts := make(map[string]int)
	for _, u := range d.Units {
		if u.Accepted > 0 {
			counts[u.Strategy] += u.Accepted
		}
	}
	return counts
}

// ExtractionOutcome is the ordered result of processing one file
type ExtractionOutcome struct {
	Filename     string               `json:"filename"`
	Transactions []*ParsedTransaction `json:"transactions"`
	Diagnostics  Diagnostics          `json:"diagnostics"`
}

// NewExtractionOutcome creates an empty outcome for the given file and format
func NewExtractionOutcome(filename, format string) *ExtractionOutcome {
	return &ExtractionOutcome{
		Filename:     filename,
		Transactions: make([]*ParsedTransaction, 0),
		Diagnostics:  Diagnostics{Format: format},
	}
}

// Append adds transactions in source order
func (o *ExtractionOutcome) Append(txs ...*ParsedTransaction) {
	o.Transactions = append(o.Transactions, txs...)
}

// Summary aggregates an outcome for reporting
type Summary struct {
	Total          int             `json:"total"`
	Debits         int             `json:"debits"`
	Credits        int             `json:"credits"`
	BroughtForward int             `json:"brought_forward"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	FirstDate      *time.Time      `json:"first_date,omitempty"`
	LastDate       *time.Time      `json:"last_date,omitempty"`
}

// Net returns credits minus debits
func (s Summary) Net() decimal.Decimal {
	return s.TotalCredit.Sub(s.TotalDebit)
}

// Summary computes totals over the outcome's transactions
func (o *ExtractionOutcome) Summary() Summary {
	s := Summary{
		Total:       len(o.Transactions),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, tx := range o.Transactions {
		on := tx.OccurredOn
		if s.FirstDate == nil || on.Before(*s.FirstDate) {
			s.FirstDate = &on
		}
		if s.LastDate == nil || on.After(*s.LastDate) {
			s.LastDate = &on
		}

		if tx.Amount == nil {
			s.BroughtForward++
			continue
		}
		if *tx.Direction == DirectionCredit {
			s.Credits++
			s.TotalCredit = s.TotalCredit.Add(*tx.Amount)
		} else {
			s.Debits++
			s.TotalDebit = s.TotalDebit.Add(*tx.Amount)
		}
	}
	return s
}
