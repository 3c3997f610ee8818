package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"credit", DirectionCredit},
		{"CR", DirectionCredit},
		{" c ", DirectionCredit},
		{"Deposit", DirectionCredit},
		{"debit", DirectionDebit},
		{"DR", DirectionDebit},
		{"withdrawal", DirectionDebit},
		{"", DirectionDebit},
		{"???", DirectionDebit},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseDirection(tt.in); got != tt.want {
				t.Errorf("ParseDirection(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewTransactionTruncatesTime(t *testing.T) {
	at := time.Date(2024, 3, 15, 17, 45, 0, 0, time.FixedZone("IST", 19800))
	tx := NewTransaction(at, "ATM", decimal.NewFromInt(10), DirectionDebit, nil)

	if !tx.OccurredOn.Equal(day(2024, 3, 15)) {
		t.Errorf("expected date-only value, got %v", tx.OccurredOn)
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestParsedTransactionValidate(t *testing.T) {
	debit := DirectionDebit
	bogus := Direction("sideways")

	tests := []struct {
		name    string
		tx      *ParsedTransaction
		wantErr bool
	}{
		{
			name: "valid debit",
			tx:   NewTransaction(day(2024, 1, 1), "ATM WITHDRAWAL", decimal.RequireFromString("500"), DirectionDebit, dec("12450")),
		},
		{
			name: "valid brought forward",
			tx:   NewBroughtForward(day(2024, 3, 15), "B/F", dec("10000")),
		},
		{
			name:    "zero date",
			tx:      &ParsedTransaction{Description: "x", Amount: dec("1"), Direction: &debit},
			wantErr: true,
		},
		{
			name:    "blank description",
			tx:      &ParsedTransaction{OccurredOn: day(2024, 1, 1), Description: "  ", Amount: dec("1"), Direction: &debit},
			wantErr: true,
		},
		{
			name:    "amount without direction",
			tx:      &ParsedTransaction{OccurredOn: day(2024, 1, 1), Description: "x", Amount: dec("1")},
			wantErr: true,
		},
		{
			name:    "direction without amount",
			tx:      &ParsedTransaction{OccurredOn: day(2024, 1, 1), Description: "x", Direction: &debit},
			wantErr: true,
		},
		{
			name:    "zero amount",
			tx:      &ParsedTransaction{OccurredOn: day(2024, 1, 1), Description: "x", Amount: dec("0"), Direction: &debit},
			wantErr: true,
		},
		{
			name:    "negative amount",
			tx:      &ParsedTransaction{OccurredOn: day(2024, 1, 1), Description: "x", Amount: dec("-5"), Direction: &debit},
			wantErr: true,
		},
		{
			name:    "unknown direction",
			tx:      &ParsedTransaction{OccurredOn: day(2024, 1, 1), Description: "x", Amount: dec("5"), Direction: &bogus},
			wantErr: true,
		},
		{
			name:    "negative balance",
			tx:      NewTransaction(day(2024, 1, 1), "x", decimal.NewFromInt(5), DirectionCredit, dec("-1")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	debit := NewTransaction(day(2024, 1, 1), "x", decimal.NewFromInt(250), DirectionDebit, nil)
	credit := NewTransaction(day(2024, 1, 1), "x", decimal.NewFromInt(50000), DirectionCredit, nil)
	marker := NewBroughtForward(day(2024, 1, 1), "B/F", dec("10"))

	if !debit.SignedAmount().Equal(decimal.NewFromInt(-250)) {
		t.Errorf("expected -250, got %s", debit.SignedAmount())
	}
	if !credit.SignedAmount().Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected 50000, got %s", credit.SignedAmount())
	}
	if !marker.SignedAmount().IsZero() || !marker.IsBroughtForward() {
		t.Error("expected brought-forward marker with zero signed amount")
	}
}

func TestParsedTransactionJSON(t *testing.T) {
	tx := NewTransaction(day(2024, 1, 1), "ATM WITHDRAWAL", decimal.RequireFromString("500"), DirectionDebit, dec("12450"))

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal into map failed: %v", err)
	}

	expected := map[string]interface{}{
		"occurred_on": "2024-01-01",
		"description": "ATM WITHDRAWAL",
		"amount":      "500.00",
		"direction":   "debit",
		"balance":     "12450.00",
	}
	for key, want := range expected {
		if raw[key] != want {
			t.Errorf("field %s = %v, want %v", key, raw[key], want)
		}
	}

	var back ParsedTransaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back.Equals(tx) {
		t.Errorf("expected %v, got %v", tx, &back)
	}
}

func TestBroughtForwardJSON(t *testing.T) {
	tx := NewBroughtForward(day(2024, 3, 15), "B/F", dec("10000"))

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if raw["amount"] != nil || raw["direction"] != nil {
		t.Errorf("expected null amount and direction, got %v / %v", raw["amount"], raw["direction"])
	}
	if raw["balance"] != "10000.00" {
		t.Errorf("expected balance 10000.00, got %v", raw["balance"])
	}
}

func TestOutcomeSummary(t *testing.T) {
	outcome := NewExtractionOutcome("stmt.csv", "csv")
	outcome.Append(
		NewBroughtForward(day(2024, 1, 1), "B/F", dec("1000")),
		NewTransaction(day(2024, 1, 2), "ATM", decimal.NewFromInt(200), DirectionDebit, dec("800")),
		NewTransaction(day(2024, 1, 5), "SALARY", decimal.NewFromInt(5000), DirectionCredit, dec("5800")),
		NewTransaction(day(2024, 1, 3), "RENT", decimal.NewFromInt(300), DirectionDebit, dec("5500")),
	)

	s := outcome.Summary()
	if s.Total != 4 || s.Debits != 2 || s.Credits != 1 || s.BroughtForward != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if !s.TotalDebit.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected total debit 500, got %s", s.TotalDebit)
	}
	if !s.Net().Equal(decimal.NewFromInt(4500)) {
		t.Errorf("expected net 4500, got %s", s.Net())
	}
	if !s.FirstDate.Equal(day(2024, 1, 1)) || !s.LastDate.Equal(day(2024, 1, 5)) {
		t.Errorf("unexpected date range %v - %v", s.FirstDate, s.LastDate)
	}
}

func TestDiagnostics(t *testing.T) {
	var d Diagnostics
	d.AddUnit(UnitDiagnostics{Kind: UnitPage, Index: 1, Strategy: "structured", Candidates: 5, Accepted: 4, Rejected: 1})
	d.AddUnit(UnitDiagnostics{Kind: UnitPage, Index: 2, Strategy: "block", Candidates: 3, Accepted: 2, Rejected: 1})
	d.AddUnit(UnitDiagnostics{Kind: UnitPage, Index: 3, Strategy: "structured", Candidates: 2, Accepted: 2})

	if d.Rejected() != 2 {
		t.Errorf("expected 2 rejected, got %d", d.Rejected())
	}
	counts := d.StrategyCounts()
	if counts["structured"] != 6 || counts["block"] != 2 {
		t.Errorf("unexpected strategy counts: %v", counts)
	}
}
