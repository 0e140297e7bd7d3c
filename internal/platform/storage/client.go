package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

const (
	defaultDownloadExpiry = 15 * time.Minute
	// GCS rejects V4 signatures valid for longer than seven days.
	maxDownloadExpiry = 7 * 24 * time.Hour
)

var (
	errNoSigner       = errors.New("storage: signer is required")
	errInvalidBucket  = errors.New("storage: bucket name is required")
	errInvalidObject  = errors.New("storage: object name is required")
	errExpiryTooLong  = errors.New("storage: expiry exceeds permitted maximum")
	errMethodNotAllow = errors.New("storage: only GET and HEAD can be signed for downloads")
)

// URLSigner issues V4 signed download URLs.
type URLSigner struct {
	signer Signer
	now    func() time.Time
}

// URLSignerOption customises URLSigner.
type URLSignerOption func(*URLSigner)

// WithClock injects a time source.
func WithClock(now func() time.Time) URLSignerOption {
	return func(s *URLSigner) {
		if now != nil {
			s.now = now
		}
	}
}

// NewURLSigner wraps signer.
func NewURLSigner(signer Signer, opts ...URLSignerOption) (*URLSigner, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	s := &URLSigner{signer: signer, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// DownloadOptions controls the signed response.
type DownloadOptions struct {
	Method       string
	ExpiresIn    time.Duration
	Disposition  string
	ResponseType string
}

// SignedURL is a link plus its expiry.
type SignedURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}

// DownloadURL signs a GET (or HEAD) URL for bucket/object.
func (s *URLSigner) DownloadURL(ctx context.Context, bucket, object string, opts DownloadOptions) (SignedURL, error) {
	if s == nil {
		return SignedURL{}, errNoSigner
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return SignedURL{}, errInvalidBucket
	}
	if object = strings.TrimSpace(object); object == "" {
		return SignedURL{}, errInvalidObject
	}

	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = "GET"
	}
	if method != "GET" && method != "HEAD" {
		return SignedURL{}, errMethodNotAllow
	}

	expiry := opts.ExpiresIn
	if expiry <= 0 {
		expiry = defaultDownloadExpiry
	}
	if expiry > maxDownloadExpiry {
		return SignedURL{}, errExpiryTooLong
	}
	expiresAt := s.now().Add(expiry)

	query := url.Values{}
	if opts.Disposition != "" {
		query.Set("response-content-disposition", opts.Disposition)
	}
	if opts.ResponseType != "" {
		query.Set("response-content-type", opts.ResponseType)
	}

	signed, err := gcs.SignedURL(bucket, object, &gcs.SignedURLOptions{
		GoogleAccessID: s.signer.Email(),
		Scheme:         gcs.SigningSchemeV4,
		Method:         method,
		Expires:        expiresAt,
		SignBytes: func(payload []byte) ([]byte, error) {
			return s.signer.SignBytes(ctx, payload)
		},
		QueryParameters: query,
	})
	if err != nil {
		return SignedURL{}, fmt.Errorf("storage: sign download url: %w", err)
	}
	return SignedURL{URL: signed, Method: method, ExpiresAt: expiresAt}, nil
}
