package extract

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// excelText renders an XLSX workbook as text, one sheet header and one
// line per row.
func excelText(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer func() { _ = f.Close() }()

	var full bytes.Buffer
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		full.WriteString(headerLine(sheet, rows[0]))
		full.WriteByte('\n')
		for i := 1; i < len(rows); i++ {
			full.WriteString(rowLine(i+1, rows[0], rows[i]))
			full.WriteByte('\n')
		}
	}
	return full.Bytes()
}

func headerLine(sheet string, header []string) string {
	var b strings.Builder
	b.WriteString("Sheet: ")
	b.WriteString(sheet)
	b.WriteString("\nHeader: ")
	for i, h := range header {
		if i > 0 {
			b.WriteString("\t")
		}
		b.WriteString(h)
	}
	return b.String()
}

func rowLine(rowIdx int, header, row []string) string {
	maxCols := len(header)
	if len(row) > maxCols {
		maxCols = len(row)
	}
	var b strings.Builder
	b.WriteString("Row ")
	b.WriteString(strconv.Itoa(rowIdx))
	b.WriteString(": ")
	for col := 0; col < maxCols; col++ {
		if col > 0 {
			b.WriteString("\t")
		}
		if col < len(row) {
			b.WriteString(row[col])
		}
	}
	return b.String()
}
