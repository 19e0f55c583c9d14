package pages

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-viewrender/pkg/helpers"
	"github.com/goliatone/go-viewrender/pkg/view"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// NewHandler builds a net/http handler rendering pages through renderer.
func NewHandler(renderer *view.Renderer, fns ...OptionFn) http.Handler {
	return HandlerWithOptions(renderer, NewOptions(fns...))
}

// HandlerWithOptions builds a handler from a pre-constructed Options value.
func HandlerWithOptions(renderer *view.Renderer, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil || renderer == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeError(w, r, opts, err, http.StatusForbidden)
				return
			}
		}

		page, ok := pageName(r, opts)
		if !ok {
			http.NotFound(w, r)
			return
		}

		var data view.Data
		if opts.Data != nil {
			loaded, err := opts.Data(r)
			if err != nil {
				writeError(w, r, opts, err, http.StatusInternalServerError)
				return
			}
			data = loaded
		}

		scoped := renderer.Clone()
		scoped.RegisterHelper(helpers.RootURIKey, helpers.NewRootURIHelper(helpers.HTTPRequest{
			Request:        r,
			TrustForwarded: opts.TrustForwarded,
		}))
		for _, register := range opts.Helpers {
			if register != nil {
				register(r, scoped)
			}
		}

		out, err := scoped.Render(r.Context(), page, data)
		if err != nil {
			writeError(w, r, opts, err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", opts.ContentType)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, out)
	})
}

// pageName resolves the template from the "page" route variable, falling back
// to the request path below the route prefix. Paths escaping the root are
// rejected.
func pageName(r *http.Request, opts Options) (string, bool) {
	page, ok := mux.Vars(r)["page"]
	if !ok {
		page = strings.TrimPrefix(r.URL.Path, strings.TrimRight(opts.RoutePath, "/"))
	}

	page = strings.Trim(page, "/")
	if page == "" {
		return opts.IndexPage, true
	}
	if strings.Contains(page, "\\") {
		return "", false
	}
	for _, segment := range strings.Split(page, "/") {
		if segment == ".." {
			return "", false
		}
	}
	cleaned := path.Clean(page)
	if cleaned == "." || strings.HasPrefix(cleaned, "/") {
		return "", false
	}
	return cleaned, true
}

func writeError(w http.ResponseWriter, r *http.Request, opts Options, err error, fallback int) {
	code := fallback
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr) && httpErr != nil:
		code = httpErr.StatusCode()
	case errors.Is(err, view.ErrTemplateNotFound):
		code = http.StatusNotFound
	}
	if code <= 0 {
		code = fallback
	}

	if opts.Logger != nil {
		opts.Logger.WarnContext(r.Context(), "page request failed",
			"path", r.URL.Path,
			"status", code,
			"error", err,
		)
	}
	http.Error(w, http.StatusText(code), code)
}
