package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultBodyLimit bounds JSON request bodies when callers pass a non-positive limit.
const DefaultBodyLimit = 64 << 10

var (
	// ErrEmptyBody is returned when a JSON body is required but absent.
	ErrEmptyBody = errors.New("request body is required")
	// ErrBodyTooLarge is returned when the body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("request body too large")
	// ErrInvalidJSON is returned when the body does not decode into the target.
	ErrInvalidJSON = errors.New("request body must be valid JSON")
)

// ReadBody reads at most limit bytes, reporting ErrBodyTooLarge when the body is longer.
func ReadBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, ErrEmptyBody
	}
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyBody
	}
	return data, nil
}

// DecodeJSON reads the body and decodes it into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, limit int64, dst any) error {
	data, err := ReadBody(r, limit)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}
	return nil
}

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// BodyError maps ReadBody/DecodeJSON failures to the error envelope.
func BodyError(err error) Error {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return NewError("payload_too_large", err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrEmptyBody), errors.Is(err, ErrInvalidJSON):
		return NewError("invalid_request", err.Error(), http.StatusBadRequest)
	default:
		return NewError("invalid_request", "unable to read request body", http.StatusBadRequest)
	}
}
