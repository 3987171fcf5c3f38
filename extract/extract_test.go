package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestText_PassthroughForPlainText(t *testing.T) {
	data := []byte("plain content\n")
	out, err := Text("notes.txt", data)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("got %q, want passthrough", out)
	}
}

func TestText_DOCX(t *testing.T) {
	data := buildDOCX(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Hello</w:t></w:r></w:p><w:p><w:r><w:t>World</w:t></w:r></w:p></w:body></w:document>`)
	out, err := Text("report.docx", data)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "Hello") || !strings.Contains(text, "World") {
		t.Fatalf("missing extracted text: %q", text)
	}
	if !strings.Contains(text, "Hello\n") {
		t.Fatalf("expected paragraph break after Hello: %q", text)
	}
}

func TestText_URLQueryIgnored(t *testing.T) {
	data := buildDOCX(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Q</w:t></w:r></w:p></w:body></w:document>`)
	out, err := Text("https://example.com/report.docx?version=2", data)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !strings.Contains(string(out), "Q") {
		t.Fatalf("missing extracted text: %q", out)
	}
}

func TestText_MalformedDOCXFallsBack(t *testing.T) {
	out, err := Text("broken.docx", []byte("not a zip at all"))
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !strings.Contains(string(out), "not a zip at all") {
		t.Fatalf("expected printable fallback, got %q", out)
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
