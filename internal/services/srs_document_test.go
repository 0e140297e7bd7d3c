package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractSRSText_Formats(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		doc  SRSDocument
		want []string
	}{
		{
			name: "docx",
			doc:  SRSDocument{FileName: "scope.docx", Data: buildDOCX(t, "Payment checkout", "Role based access")},
			want: []string{"Payment checkout", "Role based access"},
		},
		{
			name: "markdown by content type",
			doc:  SRSDocument{ContentType: "text/markdown; charset=utf-8", Data: []byte("## Needs\n\n*Realtime* updates")},
			want: []string{"Needs", "Realtime updates"},
		},
		{
			name: "html",
			doc:  SRSDocument{FileName: "brief.html", Data: []byte(`<h1>Brief</h1><script>alert(1)</script><p>Admin &amp; reports</p>`)},
			want: []string{"Brief", "Admin & reports"},
		},
		{
			name: "plain",
			doc:  SRSDocument{FileName: "notes.txt", Data: []byte("  line one\r\n\r\n\r\n\r\nline two  ")},
			want: []string{"line one\n\nline two"},
		},
	}
	for _, tc := range cases {
		text, err := ExtractSRSText(ctx, tc.doc)
		if err != nil {
			t.Fatalf("%s: ExtractSRSText: %v", tc.name, err)
		}
		for _, fragment := range tc.want {
			if !strings.Contains(text, fragment) {
				t.Fatalf("%s: expected %q in %q", tc.name, fragment, text)
			}
		}
		if strings.Contains(text, "<") || strings.Contains(text, "alert") {
			t.Fatalf("%s: markup leaked into %q", tc.name, text)
		}
	}
}

func TestExtractSRSText_Rejections(t *testing.T) {
	ctx := context.Background()
	if _, err := ExtractSRSText(ctx, SRSDocument{FileName: "a.txt"}); !errors.Is(err, ErrSRSEmptyInput) {
		t.Fatalf("expected ErrSRSEmptyInput, got %v", err)
	}
	if _, err := ExtractSRSText(ctx, SRSDocument{FileName: "diagram.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}); !errors.Is(err, ErrSRSUnsupportedDocument) {
		t.Fatalf("expected ErrSRSUnsupportedDocument, got %v", err)
	}
	if _, err := ExtractSRSText(ctx, SRSDocument{FileName: "broken.docx", Data: []byte("not a zip")}); !errors.Is(err, ErrSRSUnsupportedDocument) {
		t.Fatalf("expected ErrSRSUnsupportedDocument for corrupt docx, got %v", err)
	}
	if _, err := ExtractSRSText(ctx, SRSDocument{FileName: "bad.txt", Data: []byte{0xff, 0xfe, 0xfd}}); !errors.Is(err, ErrSRSUnsupportedDocument) {
		t.Fatalf("expected ErrSRSUnsupportedDocument for invalid utf-8, got %v", err)
	}
}

func TestExtractSRSText_PDFFromExporter(t *testing.T) {
	exporter, err := NewQuoteExportService(QuoteExportServiceDeps{})
	if err != nil {
		t.Fatalf("NewQuoteExportService: %v", err)
	}
	data, err := exporter.Render(context.Background(), QuoteDocument{
		Title:     "Webhook API",
		Total:     100,
		Breakdown: []BreakdownLine{{Item: "Admin dashboard", Price: 100}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text, err := ExtractSRSText(context.Background(), SRSDocument{FileName: "upload", Data: data})
	if err != nil {
		t.Fatalf("ExtractSRSText: %v", err)
	}
	if !strings.Contains(text, "Webhook API") || !strings.Contains(text, "Admin dashboard") {
		t.Fatalf("unexpected pdf text %q", text)
	}
}
