package helpers

import (
	"net/http"
	"strings"
)

// HTTPRequest adapts *http.Request to Request. The scheme comes from the TLS
// state or a trusted X-Forwarded-Proto header and the host from Request.Host.
type HTTPRequest struct {
	Request *http.Request
	// TrustForwarded honours X-Forwarded-Proto and X-Forwarded-Host.
	TrustForwarded bool
}

var _ Request = HTTPRequest{}

// BaseURIForPath returns scheme://host followed by path.
func (r HTTPRequest) BaseURIForPath(path string) string {
	if r.Request == nil {
		return path
	}

	scheme := "http"
	if r.Request.TLS != nil {
		scheme = "https"
	}
	host := r.Request.Host
	if host == "" && r.Request.URL != nil {
		host = r.Request.URL.Host
	}

	if r.TrustForwarded {
		if proto := firstHeaderValue(r.Request.Header.Get("X-Forwarded-Proto")); proto != "" {
			scheme = strings.ToLower(proto)
		}
		if fwdHost := firstHeaderValue(r.Request.Header.Get("X-Forwarded-Host")); fwdHost != "" {
			host = fwdHost
		}
	}

	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return scheme + "://" + host + path
}

// StaticRequest is a Request with a fixed base, used outside HTTP handlers.
type StaticRequest string

// BaseURIForPath joins the base with path.
func (s StaticRequest) BaseURIForPath(path string) string {
	base := strings.TrimRight(string(s), "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func firstHeaderValue(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}
