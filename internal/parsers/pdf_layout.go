package parsers

import (
	"math"
	"sort"
	"strings"
)

// glyph is a positioned run of text as reported by a PDF backend. Y grows
// upwards, as in PDF user space.
type glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// ruling is a drawn rectangle or line segment
type ruling struct {
	MinX, MinY, MaxX, MaxY float64
}

const (
	lineNudge     = 1.0
	edgeTolerance = 2.0
)

// buildLines groups glyphs into text lines from the top of the page down.
// Glyphs within lineNudge points vertically share a line; horizontal gaps
// wider than a fraction of the font size become spaces.
func buildLines(glyphs []glyph) []string {
	if len(glyphs) == 0 {
		return nil
	}

	gs := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S == "\n" || g.S == "" {
			continue
		}
		gs = append(gs, g)
	}

	sort.SliceStable(gs, func(i, j int) bool { return gs[i].Y > gs[j].Y })
	for i := 1; i < len(gs); i++ {
		if gs[i].Y != gs[i-1].Y && math.Abs(gs[i].Y-gs[i-1].Y) < lineNudge {
			gs[i].Y = gs[i-1].Y
		}
	}
	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].Y != gs[j].Y {
			return gs[i].Y > gs[j].Y
		}
		return gs[i].X < gs[j].X
	})

	var lines []string
	for i := 0; i < len(gs); {
		j := i + 1
		for j < len(gs) && gs[j].Y == gs[i].Y {
			j++
		}
		if line := joinGlyphs(gs[i:j]); line != "" {
			lines = append(lines, line)
		}
		i = j
	}
	return lines
}

// joinGlyphs concatenates glyphs already sorted left to right
func joinGlyphs(gs []glyph) string {
	var b strings.Builder
	end := math.Inf(-1)
	for _, g := range gs {
		gap := g.FontSize * 0.2
		if b.Len() > 0 && g.X > end+gap && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(g.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		if e := g.X + g.W; e > end {
			end = e
		}
	}
	return collapseSpaces(b.String())
}

// gridTable recovers one table from the ruling lines drawn on a page: the
// distinct vertical edges become column boundaries and the horizontal
// edges row boundaries. Glyphs are assigned to the cell containing their
// origin. It returns nil when the rulings do not form a grid of at least
// two rows and two columns.
func gridTable(rulings []ruling, glyphs []glyph) [][]string {
	var xs, ys []float64
	for _, r := range rulings {
		width, height := r.MaxX-r.MinX, r.MaxY-r.MinY
		switch {
		case height <= edgeTolerance && width > edgeTolerance:
			ys = append(ys, (r.MinY+r.MaxY)/2)
		case width <= edgeTolerance && height > edgeTolerance:
			xs = append(xs, (r.MinX+r.MaxX)/2)
		case width > edgeTolerance && height > edgeTolerance:
			xs = append(xs, r.MinX, r.MaxX)
			ys = append(ys, r.MinY, r.MaxY)
		}
	}

	xs = clusterEdges(xs)
	ys = clusterEdges(ys)
	if len(xs) < 3 || len(ys) < 3 {
		return nil
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	cells := make([][][]glyph, len(ys)-1)
	for i := range cells {
		cells[i] = make([][]glyph, len(xs)-1)
	}
	for _, g := range glyphs {
		if g.S == "\n" {
			continue
		}
		col := sort.SearchFloat64s(xs, g.X+0.01) - 1
		if col < 0 || col >= len(xs)-1 {
			continue
		}
		row := -1
		for r := 0; r < len(ys)-1; r++ {
			if g.Y <= ys[r] && g.Y > ys[r+1] {
				row = r
				break
			}
		}
		if row < 0 {
			continue
		}
		cells[row][col] = append(cells[row][col], g)
	}

	var table [][]string
	for _, row := range cells {
		out := make([]string, len(row))
		for c, gs := range row {
			out[c] = strings.Join(buildLines(gs), " ")
		}
		if !blankRow(out) {
			table = append(table, out)
		}
	}
	if len(table) < 2 {
		return nil
	}
	return table
}

// clusterEdges sorts positions and merges those within edgeTolerance
func clusterEdges(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)
	out := []float64{values[0]}
	for _, v := range values[1:] {
		if v-out[len(out)-1] > edgeTolerance {
			out = append(out, v)
		}
	}
	return out
}
