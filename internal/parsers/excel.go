package parsers

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

// ParseExcel extracts transactions from the first sheet of an .xlsx or
// .xls workbook
func (e *Engine) ParseExcel(data []byte, filename string) (*models.ExtractionOutcome, error) {
	log := e.logger.WithComponent("excel_pipeline").WithField("file", filename)

	if len(data) == 0 {
		return nil, errors.FileError(errors.CodeEmptyFile, filename, nil)
	}

	var (
		sheet string
		rows  [][]string
		err   error
	)
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		sheet, rows, err = readXLS(data, filename)
	} else {
		sheet, rows, err = readXLSX(data, filename)
	}
	if err != nil {
		return nil, err
	}

	if len(trimLeadingBlank(rows)) == 0 {
		return nil, errors.EmptySheet(filename, sheet)
	}

	res, ok := e.vocab.extractGrid(rows, true)
	if !ok {
		return nil, errors.NoDateColumn(filename, res.headers)
	}

	outcome := models.NewExtractionOutcome(filename, "excel")
	outcome.Diagnostics.AddUnit(res.unit(models.UnitSheet, 0, "tabular"))
	outcome.Append(res.transactions...)

	if res.candidates > 0 && len(res.transactions) == 0 {
		log.WithFields(logger.Fields{
			"roles":      res.roles.String(),
			"candidates": res.candidates,
		}).Warn("Every row was rejected, check the column mapping")
	}

	log.WithFields(logger.Fields{
		"sheet":    sheet,
		"rows":     len(rows),
		"roles":    res.roles.String(),
		"accepted": len(res.transactions),
		"rejected": res.rejected,
	}).Debug("Parsed workbook")

	return outcome, nil
}

// readXLSX returns the raw cell values of the first sheet. Raw values keep
// dates as serial numbers instead of locale-formatted text.
func readXLSX(data []byte, filename string) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, errors.DecodeError(filename, []string{"xlsx"}, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, errors.EmptySheet(filename, "")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return sheets[0], nil, errors.DecodeError(filename, []string{"xlsx"}, err)
	}
	return sheets[0], rows, nil
}

// readXLS reads the first sheet of a legacy BIFF workbook. The reader
// panics on malformed records, so panics are turned into decode errors.
func readXLS(data []byte, filename string) (sheetName string, rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.DecodeError(filename, []string{"xls"}, fmt.Errorf("xls reader: %v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, errors.DecodeError(filename, []string{"xls"}, err)
	}
	if wb.NumSheets() == 0 {
		return "", nil, errors.EmptySheet(filename, "")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return "", nil, errors.EmptySheet(filename, "")
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return sheet.Name, rows, nil
}

// xlsRow returns nil for rows the sheet does not define
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
