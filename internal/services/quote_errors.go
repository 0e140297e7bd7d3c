package services

import "errors"

var (
	// ErrQuoteInvalidConfig signals a structurally invalid configuration such as a page count below one.
	ErrQuoteInvalidConfig = errors.New("quote service: invalid configuration")
	// ErrQuoteInvalidAction signals a remediation action that cannot be applied.
	ErrQuoteInvalidAction = errors.New("quote service: invalid suggestion action")
	// ErrQuoteBlocked is returned when a guardrail error prevents a config from being saved.
	ErrQuoteBlocked = errors.New("quote service: configuration blocked by guardrails")
	// ErrSRSUnknownLevel signals an experience level other than junior, mid, or senior.
	ErrSRSUnknownLevel = errors.New("srs: unknown experience level")
	// ErrSRSEmptyInput indicates neither text, a document, nor an analysis was supplied.
	ErrSRSEmptyInput = errors.New("srs: input is empty")
	// ErrSRSUnsupportedDocument indicates the uploaded document format cannot be read.
	ErrSRSUnsupportedDocument = errors.New("srs: unsupported document")
)
