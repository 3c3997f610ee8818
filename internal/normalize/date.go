package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"golang-statement-normalizer/internal/models"
)

// DefaultDateLayouts lists the statement date formats tried before the
// permissive day-first parser. Day-first layouts come before month-first.
var DefaultDateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
	"02-01-06",
	"02.01.06",
	"02 Jan 2006",
	"02-Jan-2006",
	"02 January 2006",
	"2006-01-02",
	"01/02/2006",
}

const monthPattern = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*`

var (
	timeSuffix = regexp.MustCompile(`(?:T|\s+)\d{1,2}:\d{2}.*$`)
	dateNoise  = regexp.MustCompile(`[^\p{L}\p{N}\s/\-.]`)
	dateTokens = regexp.MustCompile(`[\s/\-.,]+`)
	dateShape  = regexp.MustCompile(`(?i)\b(?:\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}|\d{1,2}[\s\-]` + monthPattern + `[\s\-,]+\d{2,4})\b`)
	datePrefix = regexp.MustCompile(`(?i)^\s*(?:\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}|\d{1,2}[\s\-]` + monthPattern + `[\s\-,]+\d{2,4})\b`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dec": time.December,
}

// ParseDate tries each layout in order and then a permissive day-first
// parser. The result is a date at UTC midnight.
func ParseDate(raw string, layouts []string) (time.Time, bool) {
	s := CleanDate(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if strings.Contains(layout, "06") && !strings.Contains(layout, "2006") && t.Year() < 1970 {
			t = t.AddDate(100, 0, 0)
		}
		return models.DateOnly(t), true
	}

	return parsePermissive(s)
}

// CleanDate drops a trailing time of day and any character that cannot
// appear in a date.
func CleanDate(raw string) string {
	s := strings.TrimSpace(raw)
	s = timeSuffix.ReplaceAllString(s, "")
	s = dateNoise.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func parsePermissive(s string) (time.Time, bool) {
	tokens := dateTokens.Split(strings.Trim(s, " /-.,"), -1)
	if len(tokens) != 3 {
		return time.Time{}, false
	}

	monthAt := -1
	var month time.Month
	for i, tok := range tokens {
		if m, ok := lookupMonth(tok); ok {
			monthAt, month = i, m
			break
		}
	}

	var dayTok, yearTok string
	switch monthAt {
	case -1:
		var nums [3]int
		for i, tok := range tokens {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return time.Time{}, false
			}
			nums[i] = n
		}
		if len(tokens[0]) == 4 {
			return buildDate(tokens[0], time.Month(nums[1]), nums[2])
		}
		day, mon := nums[0], nums[1]
		if mon > 12 && day <= 12 {
			day, mon = mon, day
		}
		return buildDate(tokens[2], time.Month(mon), day)
	case 0:
		dayTok, yearTok = tokens[1], tokens[2]
	case 1:
		if len(tokens[0]) == 4 {
			dayTok, yearTok = tokens[2], tokens[0]
		} else {
			dayTok, yearTok = tokens[0], tokens[2]
		}
	default:
		if len(tokens[0]) != 4 {
			return time.Time{}, false
		}
		dayTok, yearTok = tokens[1], tokens[0]
	}

	day, err := strconv.Atoi(dayTok)
	if err != nil {
		return time.Time{}, false
	}
	return buildDate(yearTok, month, day)
}

func lookupMonth(tok string) (time.Month, bool) {
	lower := strings.ToLower(tok)
	if len(lower) < 3 {
		return 0, false
	}
	if m, ok := monthNames[lower]; ok {
		return m, true
	}
	m, ok := monthNames[lower[:3]]
	if !ok {
		return 0, false
	}
	full := strings.ToLower(m.String())
	if !strings.HasPrefix(full, lower) {
		return 0, false
	}
	return m, true
}

func buildDate(yearTok string, month time.Month, day int) (time.Time, bool) {
	year, err := strconv.Atoi(yearTok)
	if err != nil {
		return time.Time{}, false
	}
	switch len(yearTok) {
	case 1, 2:
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
	case 4:
	default:
		return time.Time{}, false
	}

	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// LooksLikeDate reports whether raw contains a date-shaped token.
func LooksLikeDate(raw string) bool {
	return dateShape.MatchString(raw)
}

// LeadingDate returns the date-shaped prefix of a line, if any.
func LeadingDate(line string) (string, bool) {
	m := datePrefix.FindString(line)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// ExcelSerialDate converts a spreadsheet serial day number such as
// "45292" into a date.
func ExcelSerialDate(raw string) (time.Time, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 1 || f > 2958465 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return models.DateOnly(t), true
}

// DateSpans returns the byte offsets of every date-shaped token in text.
func DateSpans(text string) [][]int {
	return dateShape.FindAllStringIndex(text, -1)
}
