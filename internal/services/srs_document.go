package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"

	"github.com/august-web/dev-quoteX/internal/platform/textutil"
)

const (
	mimePDF      = "application/pdf"
	mimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeMarkdown = "text/markdown"
	mimeHTML     = "text/html"
	mimePlain    = "text/plain"
)

var blankLineRunRE = regexp.MustCompile(`\n{3,}`)

// SRSDocument is an uploaded requirements document.
type SRSDocument struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExtractSRSText returns the readable text of an SRS document.
// PDF, DOCX, Markdown, HTML, and plain text are supported; markup is stripped.
func ExtractSRSText(ctx context.Context, doc SRSDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(doc.Data) == 0 {
		return "", ErrSRSEmptyInput
	}

	var (
		text string
		err  error
	)
	switch detectSRSFormat(doc) {
	case mimePDF:
		text, err = extractPDFText(doc.Data)
	case mimeDOCX:
		text, err = extractDOCXText(doc.Data)
	case mimeMarkdown:
		text, err = markdownToText(doc.Data)
	case mimeHTML:
		text = textutil.StripMarkup(string(doc.Data))
	case mimePlain:
		if !utf8.Valid(doc.Data) {
			return "", fmt.Errorf("%w: text is not valid UTF-8", ErrSRSUnsupportedDocument)
		}
		text = string(doc.Data)
	default:
		return "", fmt.Errorf("%w: %s", ErrSRSUnsupportedDocument, doc.ContentType)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSRSUnsupportedDocument, err)
	}
	return normalizeExtractedText(text), nil
}

func detectSRSFormat(doc SRSDocument) string {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(doc.ContentType, ";")[0]))
	switch ct {
	case mimePDF, mimeDOCX, mimeMarkdown, mimeHTML:
		return ct
	case "text/x-markdown":
		return mimeMarkdown
	}
	switch strings.ToLower(filepath.Ext(doc.FileName)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".md", ".markdown":
		return mimeMarkdown
	case ".html", ".htm":
		return mimeHTML
	case ".txt", "":
		if ct == "" || ct == mimePlain || ct == "application/octet-stream" {
			if bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
				return mimePDF
			}
			return mimePlain
		}
	}
	if ct == mimePlain {
		return mimePlain
	}
	return ct
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCXText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return docxXMLText(rc)
	}
	return "", errors.New("document.xml not found")
}

func docxXMLText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				buf.WriteByte('\n')
			}
		}
	}
	return buf.String(), nil
}

func markdownToText(data []byte) (string, error) {
	var rendered bytes.Buffer
	if err := goldmark.Convert(data, &rendered); err != nil {
		return "", err
	}
	return textutil.StripMarkup(rendered.String()), nil
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(blankLineRunRE.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
