package helpers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-viewrender/pkg/view"
)

// RootURIKey is the key hosts conventionally register RootURIHelper under.
const RootURIKey = "root_uri"

var (
	// ErrNoRequest is returned by RootURIHelper.Render without a request.
	ErrNoRequest = errors.New("helpers: request is required")
	// ErrMalformedBaseURI is returned when a scheme override is pending but
	// the request's base URI carries no scheme separator to replace.
	ErrMalformedBaseURI = errors.New("helpers: base uri has no scheme separator")
)

// Request builds absolute URIs rooted at the current request's scheme, host
// and port.
type Request interface {
	BaseURIForPath(path string) string
}

// RootURIHelper renders the site's base URI. SetScheme overrides the scheme
// for exactly one subsequent Render call.
type RootURIHelper struct {
	mu      sync.Mutex
	request Request
	scheme  string
	pending bool
}

var _ view.Helper = (*RootURIHelper)(nil)

// NewRootURIHelper builds a helper reading from request.
func NewRootURIHelper(request Request) *RootURIHelper {
	return &RootURIHelper{request: request}
}

// SetScheme records scheme as the pending override and returns the helper.
func (h *RootURIHelper) SetScheme(scheme string) *RootURIHelper {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.scheme = scheme
	h.pending = true
	return h
}

// Render returns the base URI for "/". A pending scheme override replaces
// everything up to the first ':' and is cleared whether or not Render
// succeeds.
//
// A base URI without ':' cannot take an override; Render reports
// ErrMalformedBaseURI instead of guessing where the scheme ends.
func (h *RootURIHelper) Render() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	scheme, pending := h.scheme, h.pending
	h.scheme, h.pending = "", false

	if h.request == nil {
		return "", ErrNoRequest
	}
	base := h.request.BaseURIForPath("/")
	if !pending {
		return base, nil
	}

	idx := strings.Index(base, ":")
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrMalformedBaseURI, base)
	}
	return scheme + base[idx:], nil
}
