package parsers

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	rscpdf "rsc.io/pdf"
)

// pageContent is what a backend recovered from one page
type pageContent struct {
	Number int
	Lines  []string
	Tables [][][]string
}

// pageSource decodes a PDF into per-page text lines and tables. Sources
// are tried in order until one yields transactions.
type pageSource interface {
	Name() string
	Pages(data []byte) ([]pageContent, error)
}

func defaultPageSources() []pageSource {
	return []pageSource{ledongthucSource{}, rscSource{}}
}

// recoverPDF turns a reader panic into an error. Both readers panic on
// malformed content streams.
func recoverPDF(source string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: malformed pdf: %v", source, r)
	}
}

// ledongthucSource reads glyphs and rulings, so it can recover both
// gridded tables and text lines.
type ledongthucSource struct{}

func (ledongthucSource) Name() string { return "ledongthuc" }

func (s ledongthucSource) Pages(data []byte) (pages []pageContent, err error) {
	defer recoverPDF(s.Name(), &err)

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		pc := pageContent{Number: i}
		if glyphs, rulings, ok := ledongthucContent(p); ok {
			pc.Lines = buildLines(glyphs)
			if table := gridTable(rulings, glyphs); table != nil {
				pc.Tables = append(pc.Tables, table)
			}
		}
		if len(pc.Lines) == 0 {
			if text, err := p.GetPlainText(nil); err == nil {
				pc.Lines = splitLines(text)
			}
		}
		pages = append(pages, pc)
	}
	return pages, nil
}

func ledongthucContent(p pdf.Page) (glyphs []glyph, rulings []ruling, ok bool) {
	defer func() {
		if recover() != nil {
			glyphs, rulings, ok = nil, nil, false
		}
	}()

	content := p.Content()
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	for _, r := range content.Rect {
		rulings = append(rulings, ruling{MinX: r.Min.X, MinY: r.Min.Y, MaxX: r.Max.X, MaxY: r.Max.Y})
	}
	return glyphs, rulings, true
}

// rscSource is the text-only secondary reader
type rscSource struct{}

func (rscSource) Name() string { return "rsc" }

func (s rscSource) Pages(data []byte) (pages []pageContent, err error) {
	defer recoverPDF(s.Name(), &err)

	r, err := rscpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		var (
			glyphs []glyph
			sized  bool
		)
		for _, t := range p.Content().Text {
			glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
			sized = sized || t.W > 0
		}
		// Without glyph widths every character of a run lands on the same
		// point and spaces are dropped, so read whole runs instead.
		if len(glyphs) > 0 && !sized {
			glyphs = rscTextRuns(p)
		}
		pages = append(pages, pageContent{Number: i, Lines: buildLines(glyphs)})
	}
	return pages, nil
}

// affine is a PDF transformation matrix [a b c d e f]
type affine [6]float64

var identity = affine{1, 0, 0, 1, 0, 0}

func (m affine) mul(n affine) affine {
	return affine{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) affine {
	return affine{1, 0, 0, 1, tx, ty}
}

// runWidth approximates the advance of a run in text space units when the
// font carries no widths.
const runWidth = 0.5

// rscTextRuns interprets the page content stream and reports each shown
// string as one glyph run with its spaces intact.
func rscTextRuns(p rscpdf.Page) []glyph {
	var (
		runs    []glyph
		enc     rscpdf.TextEncoding
		size    float64
		leading float64
		ctm     = identity
		tm      = identity
		tlm     = identity
		saved   []affine
	)

	show := func(text string) {
		if text == "" {
			return
		}
		trm := affine{size, 0, 0, size, 0, 0}.mul(tm).mul(ctm)
		scale := math.Hypot(trm[0], trm[1])
		runs = append(runs, glyph{
			X:        trm[4],
			Y:        trm[5],
			W:        float64(utf8.RuneCountInString(text)) * runWidth * scale,
			FontSize: scale,
			S:        text,
		})
		tm = translate(float64(utf8.RuneCountInString(text))*runWidth*size, 0).mul(tm)
	}
	decode := func(v rscpdf.Value) string {
		if enc == nil {
			return v.RawString()
		}
		return enc.Decode(v.RawString())
	}
	nextLine := func() {
		tlm = translate(0, -leading).mul(tlm)
		tm = tlm
	}
	number := func(args []rscpdf.Value, i int) float64 {
		if i < len(args) {
			return args[i].Float64()
		}
		return 0
	}
	matrixOf := func(args []rscpdf.Value) affine {
		var m affine
		for i := range m {
			m[i] = number(args, i)
		}
		return m
	}

	rscpdf.Interpret(p.V.Key("Contents"), func(stk *rscpdf.Stack, op string) {
		args := make([]rscpdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "q":
			saved = append(saved, ctm)
		case "Q":
			if n := len(saved); n > 0 {
				ctm, saved = saved[n-1], saved[:n-1]
			}
		case "cm":
			ctm = matrixOf(args).mul(ctm)
		case "BT":
			tm, tlm = identity, identity
		case "Tf":
			if len(args) == 2 {
				enc = p.Font(args[0].Name()).Encoder()
				size = args[1].Float64()
			}
		case "TL":
			leading = number(args, 0)
		case "TD":
			leading = -number(args, 1)
			tlm = translate(number(args, 0), number(args, 1)).mul(tlm)
			tm = tlm
		case "Td":
			tlm = translate(number(args, 0), number(args, 1)).mul(tlm)
			tm = tlm
		case "Tm":
			tlm = matrixOf(args)
			tm = tlm
		case "T*":
			nextLine()
		case "'", "\"":
			nextLine()
			if len(args) > 0 {
				show(decode(args[len(args)-1]))
			}
		case "Tj":
			if len(args) == 1 {
				show(decode(args[0]))
			}
		case "TJ":
			if len(args) != 1 {
				return
			}
			var b strings.Builder
			for i := 0; i < args[0].Len(); i++ {
				item := args[0].Index(i)
				if item.Kind() == rscpdf.String {
					b.WriteString(decode(item))
				} else if item.Float64() < -200 {
					b.WriteByte(' ')
				}
			}
			show(b.String())
		}
	})
	return runs
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		lines = append(lines, strings.TrimRight(l, " \t"))
	}
	return lines
}
