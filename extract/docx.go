package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// docxText extracts text from a DOCX archive using a pure Go parser,
// falling back to a printable byte scan for malformed archives.
func docxText(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return printableText(data)
	}
	var docFile *zip.File
	for _, f := range r.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return printableText(data)
	}
	rc, err := docFile.Open()
	if err != nil {
		return printableText(data)
	}
	defer rc.Close()
	return docxTextFromXML(rc)
}

func docxTextFromXML(r io.Reader) []byte {
	dec := xml.NewDecoder(r)
	var buf bytes.Buffer
	var lastWasNewline bool
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					buf.WriteString(text)
					lastWasNewline = false
				}
			case "tab":
				buf.WriteByte('\t')
				lastWasNewline = false
			case "br", "cr":
				buf.WriteByte('\n')
				lastWasNewline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				if !lastWasNewline {
					buf.WriteByte('\n')
					lastWasNewline = true
				}
			case "tc":
				if !lastWasNewline {
					buf.WriteByte('\t')
					lastWasNewline = false
				}
			}
		}
	}
	return buf.Bytes()
}
