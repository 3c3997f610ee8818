package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical rendering of OccurredOn.
const DateLayout = "2006-01-02"

// PlaceholderDescription replaces blank or unrecoverable descriptions.
const PlaceholderDescription = "Transaction"

// Direction represents whether a transaction decreases or increases the balance
type Direction string

const (
	// DirectionDebit decreases the account balance
	DirectionDebit Direction = "debit"
	// DirectionCredit increases the account balance
	DirectionCredit Direction = "credit"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is one of the two known values
func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// ParseDirection coerces a raw token into a Direction. Unknown tokens are
// debits.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "cr", "c", "deposit":
		return DirectionCredit
	default:
		return DirectionDebit
	}
}

// ParsedTransaction is one normalized statement line.
type ParsedTransaction struct {
	OccurredOn  time.Time        `json:"occurred_on"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Direction   *Direction       `json:"direction"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
}

// NewTransaction builds a transaction carrying an amount.
func NewTransaction(on time.Time, description string, amount decimal.Decimal, direction Direction, balance *decimal.Decimal) *ParsedTransaction {
	return &ParsedTransaction{
		OccurredOn:  DateOnly(on),
		Description: description,
		Amount:      &amount,
		Direction:   &direction,
		Balance:     balance,
	}
}

// NewBroughtForward builds an opening/carried balance marker with no amount.
func NewBroughtForward(on time.Time, description string, balance *decimal.Decimal) *ParsedTransaction {
	return &ParsedTransaction{
		OccurredOn:  DateOnly(on),
		Description: description,
		Balance:     balance,
	}
}

// DateOnly truncates t to a calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate checks the structural invariants of a transaction
func (t *ParsedTransaction) Validate() error {
	if t.OccurredOn.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}

	if (t.Amount == nil) != (t.Direction == nil) {
		return fmt.Errorf("amount and direction must be both present or both absent")
	}

	if t.Amount != nil && !t.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive, got %s", t.Amount.String())
	}

	if t.Direction != nil && !t.Direction.IsValid() {
		return fmt.Errorf("invalid direction: %s", *t.Direction)
	}

	if t.Balance != nil && !t.Balance.IsPositive() {
		return fmt.Errorf("balance must be positive when present, got %s", t.Balance.String())
	}

	return nil
}

// IsBroughtForward reports whether the record only carries a balance
func (t *ParsedTransaction) IsBroughtForward() bool {
	return t.Amount == nil
}

// SignedAmount returns the amount with debits negative; zero for markers
func (t *ParsedTransaction) SignedAmount() decimal.Decimal {
	if t.Amount == nil {
		return decimal.Zero
	}
	if *t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return *t.Amount
}

// String returns a string representation of the transaction
func (t *ParsedTransaction) String() string {
	amount, direction := "-", "-"
	if t.Amount != nil {
		amount = t.Amount.StringFixed(2)
		direction = t.Direction.String()
	}
	return fmt.Sprintf("Transaction{Date: %s, Description: %s, Amount: %s, Direction: %s}",
		t.OccurredOn.Format(DateLayout), t.Description, amount, direction)
}

// MarshalJSON renders the date as YYYY-MM-DD and decimals as strings
func (t *ParsedTransaction) MarshalJSON() ([]byte, error) {
	type Alias ParsedTransaction
	aux := &struct {
		OccurredOn string  `json:"occurred_on"`
		Amount     *string `json:"amount"`
		Balance    *string `json:"balance,omitempty"`
		*Alias
	}{
		OccurredOn: t.OccurredOn.Format(DateLayout),
		Alias:      (*Alias)(t),
	}
	if t.Amount != nil {
		s := t.Amount.StringFixed(2)
		aux.Amount = &s
	}
	if t.Balance != nil {
		s := t.Balance.StringFixed(2)
		aux.Balance = &s
	}
	return json.Marshal(aux)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON
func (t *ParsedTransaction) UnmarshalJSON(data []byte) error {
	type Alias ParsedTransaction
	aux := &struct {
		OccurredOn string  `json:"occurred_on"`
		Amount     *string `json:"amount"`
		Balance    *string `json:"balance,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	on, err := time.Parse(DateLayout, aux.OccurredOn)
	if err != nil {
		return fmt.Errorf("invalid occurred_on format: %w", err)
	}
	t.OccurredOn = on

	t.Amount = nil
	if aux.Amount != nil {
		d, err := decimal.NewFromString(*aux.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount format: %w", err)
		}
		t.Amount = &d
	}

	t.Balance = nil
	if aux.Balance != nil {
		d, err := decimal.NewFromString(*aux.Balance)
		if err != nil {
			return fmt.Errorf("invalid balance format: %w", err)
		}
		t.Balance = &d
	}

	return nil
}

// Equals compares two transactions for equality
func (t *ParsedTransaction) Equals(other *ParsedTransaction) bool {
	if other == nil {
		return false
	}
	return t.OccurredOn.Equal(other.OccurredOn) &&
		t.Description == other.Description &&
		equalDecimal(t.Amount, other.Amount) &&
		equalDirection(t.Direction, other.Direction) &&
		equalDecimal(t.Balance, other.Balance)
}

func equalDecimal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalDirection(a, b *Direction) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
