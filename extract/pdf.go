package extract

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// pdfText extracts plain text from a PDF, falling back to a printable
// byte scan when the document has no text layer.
func pdfText(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	if r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		if reader, err := r.GetPlainText(); err == nil {
			if out, err := io.ReadAll(reader); err == nil && len(out) > 0 {
				return out
			}
		}
	}
	return printableText(data)
}

func printableText(in []byte) []byte {
	var out bytes.Buffer
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			b := in[0]
			if isPrintableASCII(b) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if isPrintableRune(r) {
			out.WriteRune(r)
		}
	}
	return out.Bytes()
}

func isPrintableASCII(b byte) bool {
	return b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127)
}

func isPrintableRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return true
	}
	return r >= 32 && r <= 0x10FFFF
}
