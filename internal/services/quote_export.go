package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

const (
	quotePDFHeader      = "Instant Web Quote"
	quotePDFContentType = "application/pdf"
	defaultQuotePDFName = "quote.pdf"

	pdfMarginLeft  = 20.0
	pdfPriceRight  = 160.0
	pdfRuleRight   = 190.0
	pdfLineHeight  = 8.0
	pdfPageBottom  = 270.0
	pdfBodyFont    = 12.0
	pdfHeaderFont  = 18.0
	pdfTotalFont   = 16.0
	pdfTopOfLayout = 20.0
)

var exportNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// QuoteExportServiceDeps bundles collaborators for PDF export.
type QuoteExportServiceDeps struct {
	Archive QuoteArchive
	Clock   func() time.Time
	Logger  func(context.Context, string, map[string]any)
}

type quoteExportService struct {
	archive QuoteArchive
	now     func() time.Time
	logger  func(context.Context, string, map[string]any)
}

var _ QuoteExportService = (*quoteExportService)(nil)

// NewQuoteExportService constructs the exporter. Archive may be nil when no bucket is configured.
func NewQuoteExportService(deps QuoteExportServiceDeps) (QuoteExportService, error) {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &quoteExportService{
		archive: deps.Archive,
		now:     func() time.Time { return clock().UTC() },
		logger:  logger,
	}, nil
}

// Render lays out the quote as a single-column A4 document and returns the PDF bytes.
func (s *quoteExportService) Render(ctx context.Context, doc QuoteDocument) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc.Pages < 0 || doc.Total < 0 {
		return nil, ErrQuoteExportInvalidDocument
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(s.now())
	pdf.SetTitle(quotePDFHeader, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", pdfHeaderFont)
	pdf.Text(pdfMarginLeft, pdfTopOfLayout, quotePDFHeader)

	pdf.SetFont("Helvetica", "", pdfBodyFont)
	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = defaultProjectName
	}
	pdf.Text(pdfMarginLeft, 32, tr("Project: "+title))
	if doc.Pages > 0 {
		pdf.Text(pdfMarginLeft, 40, fmt.Sprintf("Pages: %d", doc.Pages))
	}
	if delivery := strings.TrimSpace(doc.Delivery); delivery != "" {
		pdf.Text(pdfMarginLeft, 48, tr("Delivery: "+delivery))
	}
	pdf.Text(pdfMarginLeft, 62, "Breakdown:")

	y := 70.0
	for _, line := range doc.Breakdown {
		if y > pdfPageBottom {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", pdfBodyFont)
			y = pdfTopOfLayout
		}
		pdf.Text(pdfMarginLeft, y, tr(line.Item))
		price := formatPDFAmount(line.Price)
		pdf.Text(pdfPriceRight-pdf.GetStringWidth(price), y, price)
		y += pdfLineHeight
	}
	pdf.Line(pdfMarginLeft, y+2, pdfRuleRight, y+2)
	pdf.SetFont("Helvetica", "", pdfTotalFont)
	pdf.Text(pdfMarginLeft, y+14, "Total: "+formatPDFAmount(doc.Total))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteExportRender, err)
	}
	return buf.Bytes(), nil
}

// Export renders the document and, when asked, archives it and returns a download link.
func (s *quoteExportService) Export(ctx context.Context, cmd ExportQuoteCommand) (QuoteExport, error) {
	if cmd.Archive && s.archive == nil {
		return QuoteExport{}, ErrQuoteExportArchiveUnavailable
	}
	data, err := s.Render(ctx, cmd.Document)
	if err != nil {
		return QuoteExport{}, err
	}
	result := QuoteExport{PDF: data}
	if !cmd.Archive {
		return result, nil
	}

	name := ExportFileName(cmd.Name)
	archived, err := s.archive.Store(ctx, ArchivedObject{
		Name:        name,
		ContentType: quotePDFContentType,
		Data:        data,
	})
	if err != nil {
		s.logger(ctx, "quote.export.archive_failed", map[string]any{
			"name":  name,
			"error": err.Error(),
		})
		return QuoteExport{}, errors.Join(ErrQuoteExportArchiveUnavailable, err)
	}
	s.logger(ctx, "quote.export.archived", map[string]any{
		"bucket": archived.Bucket,
		"object": archived.ObjectPath,
		"bytes":  len(data),
	})
	result.Archived = &archived
	return result, nil
}

// QuoteDocumentForRequest projects a saved request onto the PDF layout. Wizard requests carry the
// page count and the delivery duration label; SRS requests carry neither.
func QuoteDocumentForRequest(req domain.ClientRequest, catalog domain.Catalog) QuoteDocument {
	doc := QuoteDocument{
		Title:     req.ProjectName,
		Total:     req.Total,
		Breakdown: append([]BreakdownLine(nil), req.Breakdown...),
	}
	if req.Config != nil {
		doc.Pages = req.Config.PageCount
		if option, ok := catalog.DeliveryOption(req.Config.DeliveryOption); ok {
			doc.Delivery = option.Duration
		}
	}
	return doc
}

// ExportFileName reduces name to a safe object name ending in .pdf.
func ExportFileName(name string) string {
	base := path.Base(strings.TrimSpace(name))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.Trim(exportNameSanitizer.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		return defaultQuotePDFName
	}
	return base + ".pdf"
}

func formatPDFAmount(v int64) string {
	return fmt.Sprintf("$%d", v)
}
