package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

func readPDFText(t *testing.T, data []byte) string {
	t.Helper()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("pdf.NewReader: %v", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		t.Fatalf("GetPlainText: %v", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		t.Fatalf("read text: %v", err)
	}
	return string(text)
}

func TestQuoteExportRenderLayout(t *testing.T) {
	svc, err := NewQuoteExportService(QuoteExportServiceDeps{
		Clock: func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewQuoteExportService: %v", err)
	}
	cfg := portfolioConfig()
	cfg.DeliveryOption = "express"
	price := CalculatePrice(cfg, DefaultCatalog(), nil)

	data, err := svc.Render(context.Background(), QuoteDocument{
		Title:     "Portfolio",
		Total:     price.Total,
		Breakdown: price.Breakdown,
		Delivery:  "1-2 weeks",
		Pages:     3,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected a PDF document")
	}
	text := readPDFText(t, data)
	for _, fragment := range []string{"Instant Web Quote", "Project: Portfolio", "Pages: 3", "Delivery: 1-2 weeks", "Breakdown:", "Express Delivery", "$213", "Total: $1063"} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in %q", fragment, text)
		}
	}
}

func TestQuoteExportOmitsEmptyPagesAndDelivery(t *testing.T) {
	svc, err := NewQuoteExportService(QuoteExportServiceDeps{})
	if err != nil {
		t.Fatalf("NewQuoteExportService: %v", err)
	}
	data, err := svc.Render(context.Background(), QuoteDocument{Total: 400})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := readPDFText(t, data)
	if strings.Contains(text, "Pages:") || strings.Contains(text, "Delivery:") {
		t.Fatalf("unexpected optional lines in %q", text)
	}
	if !strings.Contains(text, "Project: Project") {
		t.Fatalf("expected default title, got %q", text)
	}

	if _, err := svc.Render(context.Background(), QuoteDocument{Pages: -1}); !errors.Is(err, ErrQuoteExportInvalidDocument) {
		t.Fatalf("expected ErrQuoteExportInvalidDocument, got %v", err)
	}
}

func TestQuoteExportArchive(t *testing.T) {
	ctx := context.Background()
	archive := &fakeArchive{}
	svc, err := NewQuoteExportService(QuoteExportServiceDeps{Archive: archive})
	if err != nil {
		t.Fatalf("NewQuoteExportService: %v", err)
	}

	result, err := svc.Export(ctx, ExportQuoteCommand{Document: QuoteDocument{Title: "Shop", Total: 10}, Archive: true, Name: "../Acme Shop!.pdf"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Archived == nil || result.Archived.ObjectPath != "quotes/Acme-Shop.pdf" {
		t.Fatalf("unexpected archive result %+v", result.Archived)
	}
	if len(archive.stored) != 1 || archive.stored[0].ContentType != "application/pdf" || !bytes.Equal(archive.stored[0].Data, result.PDF) {
		t.Fatalf("unexpected stored object %+v", archive.stored)
	}

	plain, err := svc.Export(ctx, ExportQuoteCommand{Document: QuoteDocument{Total: 10}})
	if err != nil || plain.Archived != nil || len(plain.PDF) == 0 {
		t.Fatalf("expected plain export, got %+v %v", plain.Archived, err)
	}

	archive.err = errors.New("bucket missing")
	if _, err := svc.Export(ctx, ExportQuoteCommand{Document: QuoteDocument{Total: 10}, Archive: true}); !errors.Is(err, ErrQuoteExportArchiveUnavailable) {
		t.Fatalf("expected ErrQuoteExportArchiveUnavailable, got %v", err)
	}

	bare, err := NewQuoteExportService(QuoteExportServiceDeps{})
	if err != nil {
		t.Fatalf("NewQuoteExportService: %v", err)
	}
	if _, err := bare.Export(ctx, ExportQuoteCommand{Archive: true}); !errors.Is(err, ErrQuoteExportArchiveUnavailable) {
		t.Fatalf("expected ErrQuoteExportArchiveUnavailable without archive, got %v", err)
	}
}

func TestQuoteDocumentForRequest(t *testing.T) {
	cfg := portfolioConfig()
	cfg.DeliveryOption = "fast"
	doc := QuoteDocumentForRequest(domain.ClientRequest{
		ProjectName: "Folio",
		Total:       978,
		Config:      &cfg,
		Breakdown:   []BreakdownLine{{Item: "Portfolio Website", Price: 500}},
	}, DefaultCatalog())
	if doc.Title != "Folio" || doc.Pages != 3 || doc.Delivery != "2-3 weeks" || doc.Total != 978 {
		t.Fatalf("unexpected document %+v", doc)
	}

	srs := QuoteDocumentForRequest(domain.ClientRequest{ProjectName: "App", Mode: domain.QuoteModeSRS}, DefaultCatalog())
	if srs.Pages != 0 || srs.Delivery != "" {
		t.Fatalf("srs documents carry no pages or delivery: %+v", srs)
	}
}

func TestExportFileName(t *testing.T) {
	cases := map[string]string{
		"":                  "quote.pdf",
		"quote":             "quote.pdf",
		"../../etc/passwd":  "passwd.pdf",
		"My Quote (v2).pdf": "My-Quote-v2.pdf",
		"...":               "quote.pdf",
	}
	for in, want := range cases {
		if got := ExportFileName(in); got != want {
			t.Fatalf("ExportFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
