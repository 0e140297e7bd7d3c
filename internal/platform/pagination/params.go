package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is used when the client omits pageSize.
	DefaultPageSize = 20
	// DefaultMaxPageSize caps pageSize when Options leaves MaxPageSize unset.
	DefaultMaxPageSize = 100

	maxFilterValueLength = 64
)

// Params is a parsed listing request.
type Params struct {
	PageSize  int
	PageToken string
	Cursor    Cursor
	// Filters holds the equality filters present on the query string, keyed by parameter name.
	Filters map[string]string
}

// Filter returns the value for name and whether the client supplied it.
func (p Params) Filter(name string) (string, bool) {
	value, ok := p.Filters[name]
	return value, ok
}

// Options control how Parse behaves for one listing endpoint.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	// Filters names the query parameters accepted as equality filters. A non-empty value list
	// restricts the parameter to those values; an empty list accepts any short value.
	Filters map[string][]string
}

var (
	ErrInvalidPageSize  = errors.New("pagination: invalid pageSize")
	ErrInvalidPageToken = errors.New("pagination: invalid pageToken")
	ErrInvalidFilter    = errors.New("pagination: invalid filter")
)

// FromRequest parses the listing parameters of r.
func FromRequest(r *http.Request, opts Options) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), opts)
}

// Parse reads pageSize, pageToken and the configured filters. The token is decoded eagerly
// so malformed cursors fail before any store access.
func Parse(values url.Values, opts Options) (Params, error) {
	if values == nil {
		values = url.Values{}
	}

	size, err := pageSize(values.Get("pageSize"), opts)
	if err != nil {
		return Params{}, err
	}
	params := Params{PageSize: size}

	if token := strings.TrimSpace(values.Get("pageToken")); token != "" {
		cursor, err := DecodeToken(token)
		if err != nil {
			return Params{}, err
		}
		params.PageToken = token
		params.Cursor = cursor
	}

	filters, err := parseFilters(values, opts.Filters)
	if err != nil {
		return Params{}, err
	}
	params.Filters = filters
	return params, nil
}

func pageSize(raw string, opts Options) (int, error) {
	limit := opts.MaxPageSize
	if limit <= 0 {
		limit = DefaultMaxPageSize
	}
	fallback := opts.DefaultPageSize
	if fallback <= 0 {
		fallback = DefaultPageSize
	}
	fallback = min(fallback, limit)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: must be an integer", ErrInvalidPageSize)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidPageSize)
	}
	return min(value, limit), nil
}

func parseFilters(values url.Values, allowed map[string][]string) (map[string]string, error) {
	var out map[string]string
	for name, accepted := range allowed {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		if len(raw) > maxFilterValueLength {
			return nil, fmt.Errorf("%w: %s is too long", ErrInvalidFilter, name)
		}
		if len(accepted) > 0 && !slices.Contains(accepted, raw) {
			return nil, fmt.Errorf("%w: %s must be one of %s", ErrInvalidFilter, name, strings.Join(accepted, ", "))
		}
		if out == nil {
			out = make(map[string]string, len(allowed))
		}
		out[name] = raw
	}
	return out, nil
}
