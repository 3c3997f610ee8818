package parsers

import (
	"golang-statement-normalizer/internal/models"
)

// accept enforces the invariants of a returned transaction. Rejection is
// silent; callers only count it.
func (v *vocabulary) accept(c candidate) (*models.ParsedTransaction, bool) {
	if c.date.IsZero() {
		return nil, false
	}

	description := collapseSpaces(c.description)
	if description == "" {
		description = v.placeholder
	}

	balance := c.balance
	if balance != nil && !balance.IsPositive() {
		balance = nil
	}

	if c.amount == nil {
		if !c.broughtForward {
			return nil, false
		}
		return models.NewBroughtForward(c.date, description, balance), true
	}

	if !c.amount.IsPositive() {
		return nil, false
	}

	return models.NewTransaction(c.date, description, *c.amount, models.ParseDirection(c.direction), balance), true
}
