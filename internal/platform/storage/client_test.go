package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

type fakeSigner struct {
	email    string
	payloads [][]byte
	err      error
}

func (f *fakeSigner) Email() string { return f.email }

func (f *fakeSigner) SignBytes(_ context.Context, payload []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, append([]byte(nil), payload...))
	return []byte("signed"), nil
}

var signerNow = time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)

func TestDownloadURLSignsV4(t *testing.T) {
	signer := &fakeSigner{email: "exports@quotes.iam.gserviceaccount.com"}
	urls, err := NewURLSigner(signer, WithClock(func() time.Time { return signerNow }))
	if err != nil {
		t.Fatalf("NewURLSigner: %v", err)
	}

	res, err := urls.DownloadURL(context.Background(), "quote-exports", "quotes/2025/04/02/x/quote.pdf", DownloadOptions{
		ExpiresIn:    10 * time.Minute,
		Disposition:  `attachment; filename="quote.pdf"`,
		ResponseType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if res.Method != "GET" {
		t.Fatalf("expected GET, got %s", res.Method)
	}
	if !res.ExpiresAt.Equal(signerNow.Add(10 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", res.ExpiresAt)
	}
	parsed, err := url.Parse(res.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := parsed.Query()
	if q.Get("X-Goog-Signature") == "" {
		t.Fatalf("expected signature in %s", parsed.RawQuery)
	}
	if q.Get("response-content-type") != "application/pdf" {
		t.Fatalf("expected response type override, got %s", parsed.RawQuery)
	}
	if len(signer.payloads) != 1 {
		t.Fatalf("expected signer to be invoked once, got %d", len(signer.payloads))
	}
}

func TestDownloadURLDefaultsExpiry(t *testing.T) {
	urls, _ := NewURLSigner(&fakeSigner{email: "a@b"}, WithClock(func() time.Time { return signerNow }))
	res, err := urls.DownloadURL(context.Background(), "bucket", "object", DownloadOptions{})
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if !res.ExpiresAt.Equal(signerNow.Add(defaultDownloadExpiry)) {
		t.Fatalf("unexpected expiry %v", res.ExpiresAt)
	}
}

func TestDownloadURLValidation(t *testing.T) {
	urls, _ := NewURLSigner(&fakeSigner{email: "a@b"})
	ctx := context.Background()

	cases := []struct {
		name   string
		bucket string
		object string
		opts   DownloadOptions
		want   error
	}{
		{"missing bucket", "", "o", DownloadOptions{}, errInvalidBucket},
		{"missing object", "b", " ", DownloadOptions{}, errInvalidObject},
		{"bad method", "b", "o", DownloadOptions{Method: "PUT"}, errMethodNotAllow},
		{"expiry too long", "b", "o", DownloadOptions{ExpiresIn: 8 * 24 * time.Hour}, errExpiryTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := urls.DownloadURL(ctx, tc.bucket, tc.object, tc.opts)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDownloadURLPropagatesSignerError(t *testing.T) {
	urls, _ := NewURLSigner(&fakeSigner{email: "a@b", err: errors.New("kms down")})
	if _, err := urls.DownloadURL(context.Background(), "b", "o", DownloadOptions{}); err == nil {
		t.Fatalf("expected signer error")
	}
}

func TestNewURLSignerRequiresEmail(t *testing.T) {
	if _, err := NewURLSigner(&fakeSigner{}); !errors.Is(err, errNoSigner) {
		t.Fatalf("expected errNoSigner, got %v", err)
	}
}

func testKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func TestKeySignerFromPEMAndJSON(t *testing.T) {
	keyPEM := testKeyPEM(t)

	signer, err := NewKeySigner("exports@quotes.iam.gserviceaccount.com", strings.ReplaceAll(keyPEM, "\n", `\n`))
	if err != nil {
		t.Fatalf("NewKeySigner(pem): %v", err)
	}
	sig, err := signer.SignBytes(context.Background(), []byte("payload"))
	if err != nil || len(sig) == 0 {
		t.Fatalf("SignBytes: %v", err)
	}

	doc, _ := json.Marshal(map[string]string{"client_email": "json@quotes.iam.gserviceaccount.com", "private_key": keyPEM})
	fromJSON, err := NewKeySigner("", string(doc))
	if err != nil {
		t.Fatalf("NewKeySigner(json): %v", err)
	}
	if fromJSON.Email() != "json@quotes.iam.gserviceaccount.com" {
		t.Fatalf("expected email from json, got %s", fromJSON.Email())
	}
}

func TestKeySignerRejectsBadInput(t *testing.T) {
	if _, err := NewKeySigner("", testKeyPEM(t)); err == nil {
		t.Fatalf("expected error without email")
	}
	if _, err := NewKeySigner("a@b", "not a key"); err == nil {
		t.Fatalf("expected error for non-PEM key")
	}
}
