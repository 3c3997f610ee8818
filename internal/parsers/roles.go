package parsers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang-statement-normalizer/internal/normalize"
)

// Role is the semantic meaning of a table column
type Role int

const (
	RoleDate Role = iota
	RoleDescription
	RoleDebit
	RoleCredit
	RoleAmount
	RoleBalance

	roleCount
)

var roleNames = [roleCount]string{"date", "description", "debit", "credit", "amount", "balance"}

// String returns the configuration name of the role
func (r Role) String() string {
	if r < 0 || r >= roleCount {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Roles returns every role in assignment order
func Roles() []Role {
	roles := make([]Role, roleCount)
	for i := range roles {
		roles[i] = Role(i)
	}
	return roles
}

// ParseRole looks up a role by its configuration name
func ParseRole(name string) (Role, bool) {
	for i, n := range roleNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Role(i), true
		}
	}
	return 0, false
}

// ColumnRoleMap assigns at most one column index to each role. It is built
// once per table and shared by all of that table's rows.
type ColumnRoleMap struct {
	columns [roleCount]int
}

// NewColumnRoleMap returns a map with every role unmapped
func NewColumnRoleMap() ColumnRoleMap {
	var m ColumnRoleMap
	for i := range m.columns {
		m.columns[i] = -1
	}
	return m
}

// Column returns the column bound to role
func (m ColumnRoleMap) Column(role Role) (int, bool) {
	col := m.columns[role]
	return col, col >= 0
}

// Has reports whether role is bound
func (m ColumnRoleMap) Has(role Role) bool {
	return m.columns[role] >= 0
}

// Set binds role to col
func (m *ColumnRoleMap) Set(role Role, col int) {
	m.columns[role] = col
}

// RoleOf returns the role bound to col, if any
func (m ColumnRoleMap) RoleOf(col int) (Role, bool) {
	for r, c := range m.columns {
		if c == col && c >= 0 {
			return Role(r), true
		}
	}
	return 0, false
}

// Mapped returns the bound roles
func (m ColumnRoleMap) Mapped() map[Role]int {
	out := make(map[Role]int)
	for r, c := range m.columns {
		if c >= 0 {
			out[Role(r)] = c
		}
	}
	return out
}

func (m ColumnRoleMap) String() string {
	var parts []string
	for r, c := range m.columns {
		if c >= 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", Role(r), c))
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

const exactMatchScore = 100

// scoreHeader rates how well a normalized header matches one normalized
// keyword. Zero means no match.
func scoreHeader(header, keyword string) int {
	if header == "" || keyword == "" {
		return 0
	}
	if header == keyword {
		return exactMatchScore
	}

	keywordLen := utf8.RuneCountInString(keyword)
	if keywordLen <= 2 {
		for _, tok := range strings.Fields(header) {
			if tok == keyword {
				return 2 * keywordLen
			}
		}
		return 0
	}
	if strings.Contains(header, keyword) {
		return 2 * keywordLen
	}

	headerLen := utf8.RuneCountInString(header)
	if headerLen >= 3 && strings.Contains(keyword, header) {
		return headerLen
	}
	return 0
}

type rolePair struct {
	role  Role
	col   int
	score int
}

// mapRoles assigns roles to header columns, highest score first. Ties go
// to the earlier column, then to the earlier role.
func (v *vocabulary) mapRoles(headers []string) ColumnRoleMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	var pairs []rolePair
	for _, role := range Roles() {
		for col, header := range normalized {
			best := 0
			for _, kw := range v.roleKeywords[role] {
				if s := scoreHeader(header, kw); s > best {
					best = s
				}
			}
			if best > 0 {
				pairs = append(pairs, rolePair{role: role, col: col, score: best})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		if pairs[i].col != pairs[j].col {
			return pairs[i].col < pairs[j].col
		}
		return pairs[i].role < pairs[j].role
	})

	m := NewColumnRoleMap()
	taken := make(map[int]bool)
	for _, p := range pairs {
		if m.Has(p.role) || taken[p.col] {
			continue
		}
		m.Set(p.role, p.col)
		taken[p.col] = true
	}
	return m
}

// Spreadsheet serial numbers accepted when searching for a date column,
// 1950-01-01 through 2099-12-31. Smaller numbers are usually amounts.
const (
	minSerialDate = 18264
	maxSerialDate = 73050
)

// rescueDateColumn makes sure the date role points at a column that holds
// dates. The role goes to the first unmapped column whose first non-empty
// sampled value is a date, either because no header named a date column or
// because none of the header-mapped column's sampled values parse. The
// header mapping stays when no other column qualifies.
func (v *vocabulary) rescueDateColumn(rows [][]string, m *ColumnRoleMap, serialDates bool) bool {
	sample := rows
	if len(sample) > v.dateSampleRows {
		sample = sample[:v.dateSampleRows]
	}

	headerCol, mapped := m.Column(RoleDate)
	if mapped {
		seen, parsed := 0, 0
		for _, row := range sample {
			value := strings.TrimSpace(cell(row, headerCol))
			if value == "" {
				continue
			}
			seen++
			if v.sampleDate(value, serialDates, false) {
				parsed++
			}
		}
		if seen == 0 || parsed > 0 {
			return true
		}
		m.Set(RoleDate, -1)
	}

	width := 0
	for _, row := range sample {
		if len(row) > width {
			width = len(row)
		}
	}

	for col := 0; col < width; col++ {
		if _, taken := m.RoleOf(col); taken {
			continue
		}
		for _, row := range sample {
			value := strings.TrimSpace(cell(row, col))
			if value == "" {
				continue
			}
			if v.sampleDate(value, serialDates, true) {
				m.Set(RoleDate, col)
				return true
			}
			break
		}
	}

	if mapped {
		m.Set(RoleDate, headerCol)
		return true
	}
	return false
}

// sampleDate reports whether a sampled cell is a date. Serial numbers count
// only for spreadsheets; strict limits them to a plausible range.
func (v *vocabulary) sampleDate(value string, serialDates, strict bool) bool {
	if normalize.LooksLikeDate(value) {
		if _, ok := normalize.ParseDate(value, v.layouts); ok {
			return true
		}
	}
	if !serialDates {
		return false
	}
	if strict {
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || n < minSerialDate || n >= maxSerialDate+1 {
			return false
		}
	}
	_, ok := normalize.ExcelSerialDate(value)
	return ok
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
