package pages

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/goliatone/go-viewrender/pkg/view"
)

type GuardFunc func(r *http.Request) error

// DataFunc builds the render context for a request.
type DataFunc func(r *http.Request) (view.Data, error)

// HelperFunc registers request scoped helpers on the per-request renderer.
type HelperFunc func(r *http.Request, renderer *view.Renderer)

type Options struct {
	RoutePath      string
	IndexPage      string
	ContentType    string
	TrustForwarded bool
	Guard          GuardFunc
	Data           DataFunc
	Helpers        []HelperFunc
	Logger         *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:   "/",
		IndexPage:   "index",
		ContentType: "text/html; charset=utf-8",
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if strings.TrimSpace(opts.RoutePath) == "" {
		opts.RoutePath = "/"
	}
	if strings.TrimSpace(opts.IndexPage) == "" {
		opts.IndexPage = "index"
	}
	if opts.ContentType == "" {
		opts.ContentType = "text/html; charset=utf-8"
	}
	if opts.Helpers != nil {
		opts.Helpers = append([]HelperFunc{}, opts.Helpers...)
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithIndexPage sets the template rendered for the route root.
func WithIndexPage(page string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.IndexPage = page
	}
}

func WithContentType(contentType string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ContentType = contentType
	}
}

// WithTrustForwarded lets the root URI helper honour X-Forwarded-* headers.
func WithTrustForwarded(trust bool) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.TrustForwarded = trust
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithData(fn DataFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Data = fn
	}
}

func WithHelpers(fns ...HelperFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Helpers = append(o.Helpers, fns...)
	}
}

// WithLogger records failed requests. The renderer itself never logs them.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
