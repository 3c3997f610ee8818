package parsers

import (
	"strings"

	"golang-statement-normalizer/internal/models"
)

// tableResult holds what one table produced
type tableResult struct {
	transactions []*models.ParsedTransaction
	roles        ColumnRoleMap
	headers      []string
	candidates   int
	rejected     int
}

func (r tableResult) unit(kind models.UnitKind, index int, strategy string) models.UnitDiagnostics {
	return models.UnitDiagnostics{
		Kind:       kind,
		Index:      index,
		Strategy:   strategy,
		Candidates: r.candidates,
		Accepted:   len(r.transactions),
		Rejected:   r.rejected,
	}
}

// extractTable maps the header row and runs every data row through the
// Row Parser and the Validation Gate. It returns false when no date column
// can be found.
func (v *vocabulary) extractTable(headers []string, rows [][]string, serialDates bool) (tableResult, bool) {
	res := tableResult{headers: headers}
	res.roles = v.mapRoles(headers)
	if !v.rescueDateColumn(rows, &res.roles, serialDates) {
		return res, false
	}

	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		res.candidates++

		c, ok := v.parseRow(row, res.roles, serialDates)
		if !ok {
			res.rejected++
			continue
		}
		tx, ok := v.accept(c)
		if !ok {
			res.rejected++
			continue
		}
		res.transactions = append(res.transactions, tx)
	}
	return res, true
}

// extractGrid treats the first non-blank record as the header row. When
// that row yields no date column, the first rows are searched for a better
// header, which skips metadata preambles above the real table.
func (v *vocabulary) extractGrid(records [][]string, serialDates bool) (tableResult, bool) {
	records = trimLeadingBlank(records)
	if len(records) == 0 {
		return tableResult{}, false
	}

	res, ok := v.extractTable(records[0], records[1:], serialDates)
	if ok {
		return res, true
	}

	if idx := v.findHeaderRow(records); idx > 0 {
		if better, ok := v.extractTable(records[idx], records[idx+1:], serialDates); ok {
			return better, true
		}
	}
	return res, false
}

// findHeaderRow returns the index of the record within the search window
// that contains the most header keywords, or -1.
func (v *vocabulary) findHeaderRow(records [][]string) int {
	best, bestScore := -1, 0
	for i, rec := range records {
		if i >= v.headerSearchLines {
			break
		}
		if nonBlankCells(rec) < 2 {
			continue
		}
		if score := v.headerScore(rec); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func blankRow(row []string) bool {
	return nonBlankCells(row) == 0
}

func nonBlankCells(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func trimLeadingBlank(records [][]string) [][]string {
	for len(records) > 0 && blankRow(records[0]) {
		records = records[1:]
	}
	return records
}
