// Package extract turns binary document formats into plain text so
// their content can be committed to version history. Unknown formats
// pass through verbatim.
package extract

import (
	"path"
	"strings"
)

// Text extracts the text content of data based on the name's extension.
func Text(name string, data []byte) ([]byte, error) {
	switch strings.ToLower(path.Ext(stripQuery(name))) {
	case ".pdf":
		return pdfText(data), nil
	case ".xlsx", ".xlsm":
		return excelText(data), nil
	case ".xls":
		return xlsText(data), nil
	case ".docx":
		return docxText(data), nil
	default:
		return data, nil
	}
}

func stripQuery(name string) string {
	if idx := strings.IndexByte(name, '?'); idx >= 0 {
		return name[:idx]
	}
	return name
}
