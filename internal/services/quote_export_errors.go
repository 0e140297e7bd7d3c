package services

import "errors"

var (
	// ErrQuoteExportInvalidDocument signals a document that cannot be rendered, such as a negative page count.
	ErrQuoteExportInvalidDocument = errors.New("quote export: invalid document")
	// ErrQuoteExportArchiveUnavailable indicates archiving was requested but no archive is configured.
	ErrQuoteExportArchiveUnavailable = errors.New("quote export: archive is not configured")
	// ErrQuoteExportRender wraps failures from the PDF writer.
	ErrQuoteExportRender = errors.New("quote export: render failed")
)
