package parsers

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"golang-statement-normalizer/internal/normalize"
)

// candidate is an unvalidated transaction produced by a row or text line
type candidate struct {
	date           time.Time
	description    string
	amount         *decimal.Decimal
	direction      string
	balance        *decimal.Decimal
	broughtForward bool
}

// parseRow turns one table row into a candidate. The second return value
// is false when the row has no usable date or no amount signal.
func (v *vocabulary) parseRow(cells []string, roles ColumnRoleMap, serialDates bool) (candidate, bool) {
	rc := &rowContext{cells: cells, roles: roles, vocab: v}

	rawDate, _ := rc.value(RoleDate)
	date, ok := normalize.ParseDate(rawDate, v.layouts)
	if !ok && serialDates {
		date, ok = normalize.ExcelSerialDate(rawDate)
	}
	if !ok {
		return candidate{}, false
	}

	rc.description = v.resolveDescription(rc)

	sig := resolveAmount(rc)
	c := candidate{
		date:        date,
		description: rc.description,
		amount:      sig.amount,
		direction:   sig.direction,
		balance:     resolveBalance(rc, sig.column),
	}

	if c.amount == nil {
		if !v.broughtForward.Match(c.description) {
			return candidate{}, false
		}
		c.broughtForward = true
	}
	return c, true
}

// resolveDescription uses the mapped description column, else the first
// text-like cell that is neither the date nor a number.
func (v *vocabulary) resolveDescription(rc *rowContext) string {
	if raw, ok := rc.value(RoleDescription); ok {
		if desc := collapseSpaces(raw); desc != "" {
			return desc
		}
	}

	dateCol, _ := rc.roles.Column(RoleDate)
	for col, raw := range rc.cells {
		if col == dateCol {
			continue
		}
		text := collapseSpaces(raw)
		if utf8.RuneCountInString(text) <= 3 {
			continue
		}
		if _, numeric := normalize.ParseAmount(text); numeric {
			continue
		}
		if normalize.LooksLikeDate(text) {
			continue
		}
		return text
	}
	return v.placeholder
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
