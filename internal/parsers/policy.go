package parsers

import (
	"strings"

	"github.com/shopspring/decimal"

	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/internal/normalize"
)

// amountSignal is the outcome of the amount policy for one row. A nil
// amount means the row carries no transaction amount.
type amountSignal struct {
	amount    *decimal.Decimal
	direction string
	column    int
	rule      string
}

func noAmount(rule string) amountSignal {
	return amountSignal{column: -1, rule: rule}
}

// rowContext is what the policy rules see of a row
type rowContext struct {
	cells       []string
	roles       ColumnRoleMap
	description string
	vocab       *vocabulary
}

func (rc *rowContext) value(role Role) (string, bool) {
	col, ok := rc.roles.Column(role)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(cell(rc.cells, col)), true
}

func (rc *rowContext) guessDirection() string {
	return rc.vocab.guessDirection(rc.description)
}

// amountRule returns a signal, or false when it has no opinion on the row
type amountRule struct {
	name  string
	apply func(rc *rowContext) (amountSignal, bool)
}

// amountPolicy is evaluated in order; the first rule with an opinion wins
var amountPolicy = []amountRule{
	{name: "debit_credit_columns", apply: debitCreditColumns},
	{name: "single_sided_column", apply: singleSidedColumn},
	{name: "amount_column", apply: amountColumn},
	{name: "scan_cells", apply: scanCells},
}

func resolveAmount(rc *rowContext) amountSignal {
	for _, rule := range amountPolicy {
		if sig, ok := rule.apply(rc); ok {
			sig.rule = rule.name
			return sig
		}
	}
	return noAmount("")
}

func nonZero(raw string) (decimal.Decimal, bool) {
	d, ok := normalize.ParseAmount(raw)
	if !ok || d.IsZero() {
		return decimal.Zero, false
	}
	return d.Abs(), true
}

func debitCreditColumns(rc *rowContext) (amountSignal, bool) {
	debitCol, hasDebit := rc.roles.Column(RoleDebit)
	creditCol, hasCredit := rc.roles.Column(RoleCredit)
	if !hasDebit || !hasCredit {
		return amountSignal{}, false
	}

	if d, ok := nonZero(cell(rc.cells, debitCol)); ok {
		return amountSignal{amount: &d, direction: string(models.DirectionDebit), column: debitCol}, true
	}
	if c, ok := nonZero(cell(rc.cells, creditCol)); ok {
		return amountSignal{amount: &c, direction: string(models.DirectionCredit), column: creditCol}, true
	}
	return noAmount(""), true
}

func singleSidedColumn(rc *rowContext) (amountSignal, bool) {
	debitCol, hasDebit := rc.roles.Column(RoleDebit)
	creditCol, hasCredit := rc.roles.Column(RoleCredit)

	switch {
	case hasDebit && !hasCredit:
		if d, ok := nonZero(cell(rc.cells, debitCol)); ok {
			return amountSignal{amount: &d, direction: string(models.DirectionDebit), column: debitCol}, true
		}
	case hasCredit && !hasDebit:
		if c, ok := nonZero(cell(rc.cells, creditCol)); ok {
			return amountSignal{amount: &c, direction: string(models.DirectionCredit), column: creditCol}, true
		}
	}
	return amountSignal{}, false
}

func amountColumn(rc *rowContext) (amountSignal, bool) {
	col, ok := rc.roles.Column(RoleAmount)
	if !ok {
		return amountSignal{}, false
	}

	raw := strings.TrimSpace(cell(rc.cells, col))
	d, ok := normalize.ParseAmount(raw)
	if !ok || d.IsZero() {
		return noAmount(""), true
	}

	magnitude := d.Abs()
	sig := amountSignal{amount: &magnitude, column: col}
	switch {
	case d.IsNegative():
		sig.direction = string(models.DirectionDebit)
	default:
		if dir, marked := normalize.DirectionMarker(raw); marked {
			sig.direction = string(dir)
		} else if dir, marked := rc.indicator(); marked {
			sig.direction = string(dir)
		} else {
			sig.direction = rc.guessDirection()
		}
	}
	return sig, true
}

// indicator reads a bare Cr/Dr token from the debit or credit column. Some
// statements pair one amount column with such an indicator column, which
// maps to a debit or credit header.
func (rc *rowContext) indicator() (models.Direction, bool) {
	for _, role := range []Role{RoleDebit, RoleCredit} {
		raw, ok := rc.value(role)
		if ok && markerToken.MatchString(raw) {
			return models.ParseDirection(strings.TrimSuffix(raw, ".")), true
		}
	}
	return "", false
}

func scanCells(rc *rowContext) (amountSignal, bool) {
	for col, raw := range rc.cells {
		if role, mapped := rc.roles.RoleOf(col); mapped {
			if role == RoleBalance || role == RoleDate || role == RoleDescription {
				continue
			}
		}
		d, ok := normalize.ParseAmount(raw)
		if !ok || !d.IsPositive() {
			continue
		}
		return amountSignal{amount: &d, direction: rc.guessDirection(), column: col}, true
	}
	return noAmount(""), true
}

// resolveBalance prefers the mapped balance column and otherwise takes the
// right-most positive number not already used as the amount or the date.
func resolveBalance(rc *rowContext, amountCol int) *decimal.Decimal {
	if raw, ok := rc.value(RoleBalance); ok {
		if d, ok := normalize.ParseAmount(raw); ok && d.IsPositive() {
			return &d
		}
	}

	dateCol, _ := rc.roles.Column(RoleDate)
	balanceCol, hasBalance := rc.roles.Column(RoleBalance)
	for col := len(rc.cells) - 1; col >= 0; col-- {
		if col == amountCol || col == dateCol || (hasBalance && col == balanceCol) {
			continue
		}
		if d, ok := normalize.ParseAmount(rc.cells[col]); ok && d.IsPositive() {
			return &d
		}
	}
	return nil
}
