package parsers

import (
	"sort"
	"strings"

	"golang-statement-normalizer/pkg/errors"
)

// StatementProfile tunes the default vocabulary for one bank's layout
type StatementProfile struct {
	Name           string
	Description    string
	DateLayouts    []string
	RoleKeywords   map[string][]string
	CreditKeywords []string
}

// GetStatementProfiles returns the built-in statement profiles
func GetStatementProfiles() []StatementProfile {
	return []StatementProfile{
		{
			Name:        "generic",
			Description: "Default vocabulary with no bank-specific additions",
		},
		{
			Name:        "icici",
			Description: "ICICI Bank statements (S No., Value Date, Transaction Remarks, Withdrawal/Deposit Amount)",
			DateLayouts: []string{"02-01-2006", "02/01/2006"},
			RoleKeywords: map[string][]string{
				"date":        {"value date", "transaction date"},
				"description": {"transaction remarks"},
				"debit":       {"withdrawal amount inr", "withdrawal amt"},
				"credit":      {"deposit amount inr", "deposit amt"},
				"balance":     {"balance inr"},
			},
			CreditKeywords: []string{"neft cr", "imps cr", "upi cr"},
		},
		{
			Name:        "sbi",
			Description: "State Bank of India statements (Txn Date, Description, Ref No./Cheque No., Debit, Credit, Balance)",
			DateLayouts: []string{"02 Jan 2006", "2 Jan 2006"},
			RoleKeywords: map[string][]string{
				"date":        {"txn date"},
				"description": {"description"},
			},
			CreditKeywords: []string{"by transfer", "by clearing"},
		},
		{
			Name:        "hdfc",
			Description: "HDFC Bank statements (Date, Narration, Chq./Ref.No., Withdrawal Amt., Deposit Amt., Closing Balance)",
			DateLayouts: []string{"02/01/06", "02/01/2006"},
			RoleKeywords: map[string][]string{
				"description": {"narration"},
				"debit":       {"withdrawal amt"},
				"credit":      {"deposit amt"},
				"balance":     {"closing balance"},
			},
		},
	}
}

// ProfileNames returns the sorted names of the built-in profiles
func ProfileNames() []string {
	var names []string
	for _, p := range GetStatementProfiles() {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// GetStatementProfile returns a profile by name, case-insensitively
func GetStatementProfile(name string) (StatementProfile, error) {
	for _, p := range GetStatementProfiles() {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return StatementProfile{}, errors.ConfigurationError(errors.CodeUnknownProfile, "profile", name, nil).
		WithSuggestion("Available profiles: " + strings.Join(ProfileNames(), ", "))
}

// ApplyProfile returns a copy of c with the named profile's layouts and
// keywords placed ahead of the defaults. The receiver is left unchanged.
func (c *Config) ApplyProfile(name string) (*Config, error) {
	profile, err := GetStatementProfile(name)
	if err != nil {
		return nil, err
	}

	out := c.Clone()
	out.DateLayouts = prependUnique(profile.DateLayouts, out.DateLayouts)
	for role, keywords := range profile.RoleKeywords {
		out.RoleKeywords[role] = prependUnique(keywords, out.RoleKeywords[role])
	}
	out.CreditKeywords = prependUnique(profile.CreditKeywords, out.CreditKeywords)
	return out, nil
}

func prependUnique(front, rest []string) []string {
	seen := make(map[string]bool, len(front)+len(rest))
	out := make([]string, 0, len(front)+len(rest))
	for _, list := range [][]string{front, rest} {
		for _, v := range list {
			if seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
