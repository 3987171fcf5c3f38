package extract

import (
	"bytes"
	"strconv"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
)

// xlsText renders a legacy XLS workbook as text, one sheet header and
// one line per row.
func xlsText(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	var full bytes.Buffer
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		rows := sheet.GetRows()
		if len(rows) == 0 {
			continue
		}
		header := xlsRowValues(rows[0].GetCols())
		full.WriteString(headerLine(sheet.GetName(), header))
		full.WriteByte('\n')
		for r := 1; r < len(rows); r++ {
			full.WriteString(rowLine(r+1, header, xlsRowValues(rows[r].GetCols())))
			full.WriteByte('\n')
		}
	}
	return full.Bytes()
}

func xlsRowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
