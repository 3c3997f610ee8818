package parsers

import (
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText case-folds s for keyword matching. Casers hold state, so a
// fresh one is created per call.
func foldText(s string) string {
	return cases.Fold().String(s)
}

// normalizeHeader folds a column header or keyword into a comparable
// form: accents removed, case folded, punctuation turned into spaces,
// whitespace collapsed.
func normalizeHeader(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	folded := foldText(stripped)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(mapped), " ")
}

// keywordMatcher finds any of a fixed keyword set inside free text in a
// single pass.
type keywordMatcher struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

func newKeywordMatcher(keywords []string) *keywordMatcher {
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = foldText(strings.TrimSpace(k))
		if k != "" {
			folded = append(folded, k)
		}
	}
	km := &keywordMatcher{keywords: folded}
	if len(folded) > 0 {
		km.matcher = ahocorasick.NewStringMatcher(folded)
	}
	return km
}

// Match reports whether text contains at least one keyword
func (k *keywordMatcher) Match(text string) bool {
	if k == nil || k.matcher == nil {
		return false
	}
	return len(k.matcher.MatchThreadSafe([]byte(foldText(text)))) > 0
}

// Matches returns the keywords found in text
func (k *keywordMatcher) Matches(text string) []string {
	if k == nil || k.matcher == nil {
		return nil
	}
	var found []string
	for _, idx := range k.matcher.MatchThreadSafe([]byte(foldText(text))) {
		found = append(found, k.keywords[idx])
	}
	return found
}
