package parsers

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textDecoder converts raw bytes to UTF-8 text, reporting false when the
// bytes are not valid in that encoding.
type textDecoder func([]byte) (string, bool)

func lookupEncoding(name string) (textDecoder, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return decodeUTF8, true
	case "latin-1", "latin1", "iso-8859-1":
		return charmapDecoder(charmap.ISO8859_1), true
	case "windows-1252", "cp1252":
		return charmapDecoder(charmap.Windows1252), true
	}
	return nil, false
}

func decodeUTF8(data []byte) (string, bool) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

func charmapDecoder(enc encoding.Encoding) textDecoder {
	return func(data []byte) (string, bool) {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}

// decode returns the text and the name of the first encoding that accepts data
func (v *vocabulary) decode(data []byte) (string, string, bool) {
	for _, name := range v.encodings {
		dec, _ := lookupEncoding(name)
		if text, ok := dec(data); ok {
			return text, name, true
		}
	}
	return "", "", false
}

func readDelimited(text string, delimiter rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// multiColumn reports whether the first non-blank record and at least one
// later record have more than one column.
func multiColumn(records [][]string) bool {
	records = trimLeadingBlank(records)
	if len(records) < 2 || len(records[0]) < 2 {
		return false
	}
	for _, rec := range records[1:] {
		if len(rec) > 1 {
			return true
		}
	}
	return false
}

// sniffDelimiter returns the records for the first delimiter that splits
// the text into a multi-column table.
func (v *vocabulary) sniffDelimiter(text string) ([][]string, rune, bool) {
	for _, d := range v.delimiters {
		records, err := readDelimited(text, d)
		if err != nil {
			continue
		}
		if multiColumn(records) {
			return records, d, true
		}
	}
	return nil, 0, false
}

// searchCombinations tries every encoding and delimiter pair and looks for
// a header row below any metadata preamble.
func (v *vocabulary) searchCombinations(data []byte) ([][]string, string, rune, bool) {
	for _, name := range v.encodings {
		dec, _ := lookupEncoding(name)
		text, ok := dec(data)
		if !ok {
			continue
		}
		for _, d := range v.delimiters {
			records, err := readDelimited(text, d)
			if err != nil {
				continue
			}
			idx := v.findHeaderRow(records)
			if idx < 0 {
				continue
			}
			if multiColumn(records[idx:]) {
				return records[idx:], name, d, true
			}
		}
	}
	return nil, "", 0, false
}

// ParseCSV extracts transactions from delimited text
func (e *Engine) ParseCSV(data []byte, filename string) (*models.ExtractionOutcome, error) {
	log := e.logger.WithComponent("csv_pipeline").WithField("file", filename)

	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return nil, errors.FileError(errors.CodeEmptyFile, filename, nil)
	}

	text, encodingName, ok := e.vocab.decode(data)
	if !ok {
		return nil, errors.DecodeError(filename, e.vocab.encodings, nil)
	}

	records, delimiter, ok := e.vocab.sniffDelimiter(text)
	if !ok {
		log.Debug("No delimiter produced a table, searching encoding and delimiter combinations")
		records, encodingName, delimiter, ok = e.vocab.searchCombinations(data)
		if !ok {
			return nil, errors.StructureError(filename, "no delimiter produced a table with a header row", nil)
		}
	}

	res, ok := e.vocab.extractGrid(records, false)
	if !ok {
		return nil, errors.NoDateColumn(filename, res.headers)
	}

	outcome := models.NewExtractionOutcome(filename, "csv")
	outcome.Diagnostics.Encoding = encodingName
	outcome.Diagnostics.Delimiter = string(delimiter)
	outcome.Diagnostics.AddUnit(res.unit(models.UnitFile, 0, "tabular"))
	outcome.Append(res.transactions...)

	if res.candidates > 0 && len(res.transactions) == 0 {
		log.WithFields(logger.Fields{
			"roles":      res.roles.String(),
			"candidates": res.candidates,
		}).Warn("Every row was rejected, check the column mapping")
	}

	log.WithFields(logger.Fields{
		"encoding":  encodingName,
		"delimiter": string(delimiter),
		"roles":     res.roles.String(),
		"accepted":  len(res.transactions),
		"rejected":  res.rejected,
	}).Debug("Parsed CSV statement")

	return outcome, nil
}
