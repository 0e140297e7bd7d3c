package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"

	"github.com/august-web/dev-quoteX/internal/services"
)

// Uploader writes one object. GCSUploader is the production implementation.
type Uploader interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) error
}

// GCSUploader streams objects through a Cloud Storage client.
type GCSUploader struct {
	client *gcs.Client
}

// NewGCSUploader wraps client.
func NewGCSUploader(client *gcs.Client) (*GCSUploader, error) {
	if client == nil {
		return nil, errors.New("storage uploader: client is required")
	}
	return &GCSUploader{client: client}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	// DoesNotExist keeps a retried upload from replacing an earlier export.
	w := u.client.Bucket(bucket).Object(object).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", object, err)
	}
	return nil
}

// QuoteArchiveDeps wires QuoteArchive.
type QuoteArchiveDeps struct {
	Bucket   string
	Uploader Uploader
	URLs     *URLSigner
	URLTTL   time.Duration
	Clock    func() time.Time
}

// QuoteArchive stores exported quote PDFs in a bucket and returns a signed download link.
type QuoteArchive struct {
	bucket   string
	uploader Uploader
	urls     *URLSigner
	ttl      time.Duration
	now      func() time.Time
}

var _ services.QuoteArchive = (*QuoteArchive)(nil)

// NewQuoteArchive validates deps.
func NewQuoteArchive(deps QuoteArchiveDeps) (*QuoteArchive, error) {
	bucket := strings.TrimSpace(deps.Bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	if deps.Uploader == nil {
		return nil, errors.New("storage archive: uploader is required")
	}
	if deps.URLs == nil {
		return nil, errNoSigner
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	ttl := deps.URLTTL
	if ttl <= 0 {
		ttl = defaultDownloadExpiry
	}
	return &QuoteArchive{bucket: bucket, uploader: deps.Uploader, urls: deps.URLs, ttl: ttl, now: clock}, nil
}

// Store uploads object and signs a link that downloads it as an attachment.
func (a *QuoteArchive) Store(ctx context.Context, object services.ArchivedObject) (services.ArchivedQuote, error) {
	if len(object.Data) == 0 {
		return services.ArchivedQuote{}, errors.New("storage archive: object is empty")
	}
	now := a.now().UTC()
	objectPath, err := QuoteObjectPath(now, ulid.Make().String(), object.Name)
	if err != nil {
		return services.ArchivedQuote{}, err
	}
	if err := a.uploader.Upload(ctx, a.bucket, objectPath, object.ContentType, object.Data); err != nil {
		return services.ArchivedQuote{}, err
	}

	signed, err := a.urls.DownloadURL(ctx, a.bucket, objectPath, DownloadOptions{
		ExpiresIn:    a.ttl,
		Disposition:  fmt.Sprintf("attachment; filename=%q", object.Name),
		ResponseType: object.ContentType,
	})
	if err != nil {
		return services.ArchivedQuote{}, err
	}
	return services.ArchivedQuote{
		Bucket:      a.bucket,
		ObjectPath:  objectPath,
		DownloadURL: signed.URL,
		ExpiresAt:   signed.ExpiresAt,
	}, nil
}
