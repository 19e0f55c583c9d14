package pages

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-viewrender/pkg/view"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterRoutes registers the page handler under the route path on mux.
func RegisterRoutes(m Mux, renderer *view.Renderer, fns ...OptionFn) (string, error) {
	if m == nil {
		return "", fmt.Errorf("pages: missing mux")
	}
	opts := NewOptions(fns...)
	pattern := mountPath(opts.RoutePath)
	m.Handle(pattern, HandlerWithOptions(renderer, opts))
	return pattern, nil
}

// BindRoutes registers GET and HEAD routes for the route root and every page
// below it on router, exposing the page as the "page" route variable.
func BindRoutes(router *mux.Router, renderer *view.Renderer, fns ...OptionFn) error {
	if router == nil {
		return fmt.Errorf("pages: missing router")
	}
	opts := NewOptions(fns...)
	handler := HandlerWithOptions(renderer, opts)
	base := strings.TrimRight(mountPath(opts.RoutePath), "/")

	router.Path(base + "/").
		Methods(http.MethodGet, http.MethodHead).Handler(handler)
	router.Path(base + "/{page:.+}").
		Methods(http.MethodGet, http.MethodHead).Handler(handler)
	return nil
}

func mountPath(routePath string) string {
	routePath = strings.TrimSpace(routePath)
	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	if !strings.HasSuffix(routePath, "/") {
		routePath += "/"
	}
	return routePath
}
