// Package fixtures generates synthetic bank statements with consistent
// running balances, for tests and for the CLI sample command.
package fixtures

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"golang-statement-normalizer/internal/models"
)

// Layout selects the column set, date format and number style of a
// generated statement
type Layout string

const (
	// LayoutSplit is Date,Narration,Debit,Credit,Balance with dd/mm/yyyy
	// dates and grouped amounts
	LayoutSplit Layout = "split"
	// LayoutSigned is Txn Date,Description,Amount,Balance with negative
	// debits and "02 Jan 2006" dates
	LayoutSigned Layout = "signed"
	// LayoutEuropean is semicolon separated, Latin-1 encoded, with decimal
	// commas
	LayoutEuropean Layout = "european"
)

// Layouts returns every supported layout
func Layouts() []Layout {
	return []Layout{LayoutSplit, LayoutSigned, LayoutEuropean}
}

// ParseLayout returns the layout named s
func ParseLayout(s string) (Layout, error) {
	for _, l := range Layouts() {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

var (
	creditDescriptions = []string{
		"Salary Credit", "Cash Deposit", "Transfer In", "Interest Paid",
		"Refund", "CMS Collection",
	}
	debitDescriptions = []string{
		"ATM Withdrawal", "Bill Payment", "Online Purchase", "Service Charge",
		"Maintenance Fee", "Auto Payment", "Transfer Out", "Café Purchase",
	}
)

// Line is one generated statement row. The opening line has a zero
// amount and no direction.
type Line struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Direction   models.Direction
	Balance     decimal.Decimal
	Opening     bool
}

// StatementGenerator generates statement lines
type StatementGenerator struct {
	Count          int
	StartDate      time.Time
	OpeningBalance decimal.Decimal
	MinAmount      decimal.Decimal
	MaxAmount      decimal.Decimal
	CreditRatio    float64
	Seed           int64
}

// DefaultGenerator returns a generator for 50 lines in March 2024
func DefaultGenerator() *StatementGenerator {
	return &StatementGenerator{
		Count:          50,
		StartDate:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		OpeningBalance: decimal.NewFromInt(50000),
		MinAmount:      decimal.RequireFromString("1.00"),
		MaxAmount:      decimal.RequireFromString("25000.00"),
		CreditRatio:    0.4,
		Seed:           1,
	}
}

// Generate returns an opening balance line followed by Count transactions
// in date order. Debits never take the balance below one unit.
func (sg *StatementGenerator) Generate() []Line {
	rng := rand.New(rand.NewSource(sg.Seed))

	date := models.DateOnly(sg.StartDate)
	balance := sg.OpeningBalance.Round(2)
	lines := make([]Line, 0, sg.Count+1)
	lines = append(lines, Line{
		Date:        date,
		Description: "Opening Balance",
		Balance:     balance,
		Opening:     true,
	})

	minCents := sg.MinAmount.Shift(2).IntPart()
	spread := sg.MaxAmount.Shift(2).IntPart() - minCents + 1
	if spread < 1 {
		spread = 1
	}

	for i := 0; i < sg.Count; i++ {
		date = date.AddDate(0, 0, rng.Intn(3))
		amount := decimal.New(minCents+rng.Int63n(spread), -2)

		direction := models.DirectionDebit
		if rng.Float64() < sg.CreditRatio || balance.Sub(amount).LessThan(decimal.NewFromInt(1)) {
			direction = models.DirectionCredit
		}

		var description string
		if direction == models.DirectionCredit {
			balance = balance.Add(amount)
			description = creditDescriptions[rng.Intn(len(creditDescriptions))]
		} else {
			balance = balance.Sub(amount)
			description = debitDescriptions[rng.Intn(len(debitDescriptions))]
		}

		lines = append(lines, Line{
			Date:        date,
			Description: description,
			Amount:      amount,
			Direction:   direction,
			Balance:     balance,
		})
	}

	return lines
}

// WriteCSV writes lines as a delimited statement in the given layout
func WriteCSV(w io.Writer, layout Layout, lines []Line) error {
	switch layout {
	case LayoutSplit:
		return writeDelimited(w, ',', []string{"Date", "Narration", "Debit", "Credit", "Balance"}, lines, func(l Line) []string {
			debit, credit := splitAmount(l, groupThousands)
			return []string{l.Date.Format("02/01/2006"), l.Description, debit, credit, groupThousands(l.Balance)}
		})

	case LayoutSigned:
		return writeDelimited(w, ',', []string{"Txn Date", "Description", "Amount", "Balance"}, lines, func(l Line) []string {
			amount := ""
			if !l.Opening {
				signed := l.Amount
				if l.Direction == models.DirectionDebit {
					signed = signed.Neg()
				}
				amount = signed.StringFixed(2)
			}
			return []string{l.Date.Format("02 Jan 2006"), l.Description, amount, l.Balance.StringFixed(2)}
		})

	case LayoutEuropean:
		var buf bytes.Buffer
		err := writeDelimited(&buf, ';', []string{"Date", "Narration", "Debit", "Credit", "Balance"}, lines, func(l Line) []string {
			debit, credit := splitAmount(l, decimalComma)
			return []string{l.Date.Format("02-01-2006"), l.Description, debit, credit, decimalComma(l.Balance)}
		})
		if err != nil {
			return err
		}
		latin1, err := charmap.ISO8859_1.NewEncoder().Bytes(buf.Bytes())
		if err != nil {
			return err
		}
		_, err = w.Write(latin1)
		return err

	default:
		return fmt.Errorf("unsupported layout: %s", layout)
	}
}

func writeDelimited(w io.Writer, comma rune, header []string, lines []Line, row func(Line) []string) error {
	writer := csv.NewWriter(w)
	writer.Comma = comma

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, l := range lines {
		if err := writer.Write(row(l)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes lines as a single-sheet workbook with numeric amount
// cells
func WriteXLSX(w io.Writer, lines []Line) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Txn Date", "Particulars", "Withdrawals", "Deposits", "Balance"}); err != nil {
		return err
	}

	for i, l := range lines {
		row := []interface{}{l.Date.Format("02/01/2006"), l.Description, nil, nil, l.Balance.InexactFloat64()}
		switch {
		case l.Opening:
		case l.Direction == models.DirectionDebit:
			row[2] = l.Amount.InexactFloat64()
		default:
			row[3] = l.Amount.InexactFloat64()
		}

		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func splitAmount(l Line, format func(decimal.Decimal) string) (debit, credit string) {
	if l.Opening {
		return "", ""
	}
	if l.Direction == models.DirectionDebit {
		return format(l.Amount), ""
	}
	return "", format(l.Amount)
}

// groupThousands renders d as 12,345.67
func groupThousands(d decimal.Decimal) string {
	s := d.StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + frac
}

// decimalComma renders d as 12.345,67
func decimalComma(d decimal.Decimal) string {
	grouped := groupThousands(d)
	return strings.NewReplacer(",", ".", ".", ",").Replace(grouped)
}
