package storage

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// Signer signs V4 URL payloads on behalf of a service account.
type Signer interface {
	// Email is used as the GoogleAccessID.
	Email() string
	SignBytes(ctx context.Context, payload []byte) ([]byte, error)
}

// KeySigner signs with an RSA private key held in memory.
type KeySigner struct {
	email string
	key   *rsa.PrivateKey
}

var _ Signer = (*KeySigner)(nil)

// NewKeySigner builds a signer from a service account email and a PEM encoded key.
// key may also be a full service account JSON document, in which case email may be empty.
func NewKeySigner(email, key string) (*KeySigner, error) {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "{") {
		var doc struct {
			ClientEmail string `json:"client_email"`
			PrivateKey  string `json:"private_key"`
		}
		if err := json.Unmarshal([]byte(key), &doc); err != nil {
			return nil, fmt.Errorf("storage: decode service account json: %w", err)
		}
		if strings.TrimSpace(email) == "" {
			email = doc.ClientEmail
		}
		key = strings.TrimSpace(doc.PrivateKey)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("storage: signer email is required")
	}
	if key == "" {
		return nil, errors.New("storage: signer private key is required")
	}
	rsaKey, err := parseRSAPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return &KeySigner{email: email, key: rsaKey}, nil
}

func (s *KeySigner) Email() string {
	if s == nil {
		return ""
	}
	return s.email
}

// SignBytes returns an RSASSA-PKCS1-v1_5 SHA256 signature of payload.
func (s *KeySigner) SignBytes(ctx context.Context, payload []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, errors.New("storage: signer not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("storage: sign payload: %w", err)
	}
	return sig, nil
}

func parseRSAPrivateKey(data string) (*rsa.PrivateKey, error) {
	// Keys stored in env vars often carry escaped newlines.
	data = strings.ReplaceAll(data, `\n`, "\n")
	block, _ := pem.Decode([]byte(data))
	if block == nil {
		return nil, errors.New("storage: private key is not PEM encoded")
	}
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("storage: private key is not RSA")
		}
		return rsaKey, nil
	}
	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("storage: parse RSA private key: %w", err)
	}
	return rsaKey, nil
}
