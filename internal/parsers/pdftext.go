package parsers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/internal/normalize"
)

const (
	textDate   = `(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{1,2}[\s\-](?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[\s\-]\d{2,4})`
	textNumber = `(?:\d{1,3}(?:,\d{2,3})*\.\d{2}|\d+\.\d{2})(?:\s*(?:cr|dr)\b\.?)?`
	// textAmount captures a number with its optional Cr/Dr marker
	textAmount     = `(` + textNumber + `)`
	minDescription = 3
)

var (
	blockNumber = regexp.MustCompile(`\b\d{1,3}(?:,\d{2,3})+(?:\.\d{2})?\b|\b\d+\.\d{2}\b`)
	blockMarker = regexp.MustCompile(`(?i)(\d)\s*(cr|dr)\b\.?`)
	markerToken = regexp.MustCompile(`(?i)^(?:cr|dr)\.?$`)
)

// textPatterns are the compiled line patterns of the structured strategy
type textPatterns struct {
	broughtForward *regexp.Regexp
	fiveColumn     *regexp.Regexp
	fourColumn     *regexp.Regexp
}

func compileTextPatterns(markers []string) textPatterns {
	quoted := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			quoted = append(quoted, regexp.QuoteMeta(m))
		}
	}
	// Any numbers before the last one (a zero amount column) are skipped;
	// the last is the balance.
	bf := `(?i)^` + textDate + `\s+(` + strings.Join(quoted, "|") + `)\s+(?:` + textNumber + `\s+)*` + textAmount + `(?:\s+(\D.*))?$`
	if len(quoted) == 0 {
		bf = `^\b$`
	}

	return textPatterns{
		broughtForward: regexp.MustCompile(bf),
		fiveColumn:     regexp.MustCompile(`(?i)^` + textDate + `\s+(.+?)\s+` + textAmount + `\s+` + textAmount + `\s+` + textAmount + `(?:\s+(\D.*))?$`),
		fourColumn:     regexp.MustCompile(`(?i)^` + textDate + `\s+(.+?)\s+` + textAmount + `\s+` + textAmount + `(?:\s+(\D.*))?$`),
	}
}

// textPage is the input every text strategy sees
type textPage struct {
	merged []string
	raw    string
}

// textStrategy extracts candidates from page text. Strategies are listed
// from strictest to loosest.
type textStrategy struct {
	name    string
	extract func(v *vocabulary, page textPage) []candidate
}

var textStrategies = []textStrategy{
	{name: "structured", extract: (*vocabulary).structuredLines},
	{name: "loose", extract: (*vocabulary).looseLines},
	{name: "block", extract: (*vocabulary).blockScan},
}

// textResult is the winning strategy's output for one page
type textResult struct {
	strategy     string
	transactions []*models.ParsedTransaction
	candidates   int
	rejected     int
}

// extractText runs every strategy on the page and keeps the one with the
// most accepted transactions; ties go to the stricter strategy.
func (v *vocabulary) extractText(lines []string) textResult {
	page := textPage{
		merged: v.mergeLines(lines),
		raw:    strings.Join(lines, "\n"),
	}

	best := textResult{strategy: "none"}
	for _, s := range textStrategies {
		res := textResult{strategy: s.name}
		for _, c := range s.extract(v, page) {
			res.candidates++
			if tx, ok := v.accept(c); ok {
				res.transactions = append(res.transactions, tx)
			} else {
				res.rejected++
			}
		}
		if len(res.transactions) > len(best.transactions) {
			best = res
		}
	}
	return best
}

// mergeLines joins wrapped lines onto the dated line they continue. A
// blank line or a page furniture line (totals, page numbers, headings)
// closes the current transaction.
func (v *vocabulary) mergeLines(lines []string) []string {
	var (
		out     []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
	}

	for _, raw := range lines {
		line := collapseSpaces(raw)
		if line == "" {
			flush()
			continue
		}

		_, dated := normalize.LeadingDate(line)
		switch {
		case dated:
			flush()
			current = []string{line}
		case v.skip.Match(line):
			flush()
		case len(current) > 0:
			current = append(current, line)
		default:
			out = append(out, line)
		}
	}
	flush()
	return out
}

func (v *vocabulary) textDescription(s string) string {
	s = collapseSpaces(s)
	if utf8.RuneCountInString(s) < minDescription {
		return v.placeholder
	}
	return s
}

func parseTextAmount(raw string) *decimal.Decimal {
	d, ok := normalize.ParseAmount(raw)
	if !ok || !d.IsPositive() {
		return nil
	}
	return &d
}

// guessDirection applies the credit keyword heuristic, defaulting to debit
func (v *vocabulary) guessDirection(description string) string {
	if v.credit.Match(description) {
		return string(models.DirectionCredit)
	}
	return string(models.DirectionDebit)
}

// textDirection prefers a Cr/Dr marker on the amount over the keyword
// heuristic
func (v *vocabulary) textDirection(amountRaw, description string) string {
	if dir, marked := normalize.DirectionMarker(amountRaw); marked {
		return string(dir)
	}
	return v.guessDirection(description)
}

// structuredLines matches whole lines against the strict column patterns
func (v *vocabulary) structuredLines(page textPage) []candidate {
	var out []candidate
	for _, line := range page.merged {
		if m := v.patterns.broughtForward.FindStringSubmatch(line); m != nil {
			date, ok := normalize.ParseDate(m[1], v.layouts)
			if !ok {
				continue
			}
			out = append(out, candidate{
				date:           date,
				description:    m[2],
				balance:        parseTextAmount(m[3]),
				broughtForward: true,
			})
			continue
		}

		if m := v.patterns.fiveColumn.FindStringSubmatch(line); m != nil {
			date, ok := normalize.ParseDate(m[1], v.layouts)
			if !ok {
				continue
			}
			c := candidate{
				date:        date,
				description: v.textDescription(m[2] + " " + m[6]),
				balance:     parseTextAmount(m[5]),
			}
			if deposit := parseTextAmount(m[3]); deposit != nil {
				c.amount, c.direction = deposit, string(models.DirectionCredit)
			} else if withdrawal := parseTextAmount(m[4]); withdrawal != nil {
				c.amount, c.direction = withdrawal, string(models.DirectionDebit)
			} else {
				continue
			}
			out = append(out, c)
			continue
		}

		if m := v.patterns.fourColumn.FindStringSubmatch(line); m != nil {
			date, ok := normalize.ParseDate(m[1], v.layouts)
			if !ok {
				continue
			}
			description := v.textDescription(m[2] + " " + m[5])
			out = append(out, candidate{
				date:        date,
				description: description,
				amount:      parseTextAmount(m[3]),
				direction:   v.textDirection(m[3], description),
				balance:     parseTextAmount(m[4]),
			})
		}
	}
	return out
}

// looseLines accepts any line with a leading date and trailing numbers.
// With two or more numbers the last two are amount and balance.
func (v *vocabulary) looseLines(page textPage) []candidate {
	var out []candidate
	for _, line := range page.merged {
		token, ok := normalize.LeadingDate(line)
		if !ok {
			continue
		}
		date, ok := normalize.ParseDate(token, v.layouts)
		if !ok {
			continue
		}

		fields := strings.Fields(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), token)))
		var numbers []string
		for len(fields) > 0 {
			last, used := fields[len(fields)-1], 1
			if markerToken.MatchString(last) && len(fields) > 1 {
				last, used = fields[len(fields)-2]+" "+last, 2
			}
			if !strings.ContainsAny(last, "0123456789") || normalize.LooksLikeDate(last) {
				break
			}
			if _, ok := normalize.ParseAmount(last); !ok {
				break
			}
			numbers = append([]string{last}, numbers...)
			fields = fields[:len(fields)-used]
		}
		if len(numbers) == 0 {
			continue
		}

		description := v.textDescription(strings.Join(fields, " "))
		c := candidate{date: date, description: description}

		amountRaw := numbers[0]
		if len(numbers) >= 2 {
			amountRaw = numbers[len(numbers)-2]
			c.balance = parseTextAmount(numbers[len(numbers)-1])
		}
		d, _ := normalize.ParseAmount(amountRaw)

		if v.broughtForward.Match(description) && (len(numbers) == 1 || d.IsZero()) {
			c.broughtForward = true
			c.balance = parseTextAmount(numbers[len(numbers)-1])
			out = append(out, c)
			continue
		}

		magnitude := d.Abs()
		c.amount = &magnitude
		if d.IsNegative() {
			c.direction = string(models.DirectionDebit)
		} else {
			c.direction = v.textDirection(amountRaw, description)
		}
		out = append(out, c)
	}
	return out
}

// blockScan splits the raw page text at every date token and reads each
// block's numbers: the largest is the balance and the first remaining one
// the amount.
func (v *vocabulary) blockScan(page textPage) []candidate {
	spans := normalize.DateSpans(page.raw)

	var out []candidate
	for i, span := range spans {
		end := len(page.raw)
		if i+1 < len(spans) {
			end = spans[i+1][0]
		}
		date, ok := normalize.ParseDate(page.raw[span[0]:span[1]], v.layouts)
		if !ok {
			continue
		}
		body := collapseSpaces(page.raw[span[1]:end])
		var marker models.Direction
		if m := blockMarker.FindStringSubmatch(body); m != nil {
			marker = models.ParseDirection(m[2])
		}

		var values []decimal.Decimal
		for _, tok := range blockNumber.FindAllString(body, -1) {
			if d := parseTextAmount(tok); d != nil {
				values = append(values, *d)
			}
		}

		if v.broughtForward.Match(firstWords(body, 2)) {
			c := candidate{date: date, description: firstMarker(v, body), broughtForward: true}
			if len(values) > 0 {
				c.balance = &values[len(values)-1]
			}
			out = append(out, c)
			continue
		}
		if len(values) < 2 {
			continue
		}

		maxAt := 0
		for j, d := range values {
			if d.GreaterThan(values[maxAt]) {
				maxAt = j
			}
		}
		balance := values[maxAt]
		rest := append(append([]decimal.Decimal(nil), values[:maxAt]...), values[maxAt+1:]...)
		amount := rest[0]

		description := v.textDescription(blockNumber.ReplaceAllString(blockMarker.ReplaceAllString(body, "$1 "), " "))
		direction := v.guessDirection(description)
		if marker != "" {
			direction = string(marker)
		}
		out = append(out, candidate{
			date:        date,
			description: description,
			amount:      &amount,
			direction:   direction,
			balance:     &balance,
		})
	}
	return out
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

// firstMarker returns the brought-forward marker as written in the text
func firstMarker(v *vocabulary, body string) string {
	words := firstWords(body, 2)
	for _, marker := range v.broughtForward.keywords {
		if idx := strings.Index(foldText(words), marker); idx >= 0 && idx+len(marker) <= len(words) {
			return words[idx : idx+len(marker)]
		}
	}
	return v.placeholder
}
