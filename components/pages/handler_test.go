package pages

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-viewrender/pkg/view"
)

func newTestRenderer() *view.Renderer {
	templates := view.NewFuncSet().
		Register("index", func(s *view.Scope) error {
			return s.Print("index")
		}).
		Register("docs/intro", func(s *view.Scope) error {
			root, err := s.Helper("root_uri")
			if err != nil {
				return err
			}
			uri, err := root.Render()
			if err != nil {
				return err
			}
			return s.Printf("intro %v %s", s.Value("user"), uri)
		}).
		Register("broken", func(*view.Scope) error {
			return errors.New("template exploded")
		})
	return view.New(view.WithEvaluator(templates))
}

func TestNewHandler_RendersPageWithRequestHelper(t *testing.T) {
	h := NewHandler(newTestRenderer(), WithData(func(r *http.Request) (view.Data, error) {
		return view.Data{"user": r.URL.Query().Get("user")}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/docs/intro?user=ada", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content-type, got %q", ct)
	}
	if body := rec.Body.String(); body != "intro ada http://example.com/" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestNewHandler_IndexAndHead(t *testing.T) {
	h := NewHandler(newTestRenderer())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "index" {
		t.Fatalf("index: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("head: %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewHandler_ErrorStatuses(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(newTestRenderer(), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	cases := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodGet, "/broken", http.StatusInternalServerError},
		{http.MethodGet, "/docs/../../etc/passwd", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, "/", nil)
		req.URL.Path = tc.target
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.target, tc.want, rec.Code)
		}
	}
	if !strings.Contains(logs.String(), "template exploded") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
}

func TestPageName_Segments(t *testing.T) {
	cases := []struct {
		path string
		want string
		ok   bool
	}{
		{"/", "index", true},
		{"/v1..2", "v1..2", true},
		{"/docs/v1..2/intro", "docs/v1..2/intro", true},
		{"/docs//intro/", "docs/intro", true},
		{"/docs/./intro", "docs/intro", true},
		{"/..", "", false},
		{"/../secret", "", false},
		{"/docs/../secret", "", false},
		{"/a/../../secret", "", false},
		{`/docs\intro`, "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path = tc.path
		got, ok := pageName(req, Options{IndexPage: "index"})
		if got != tc.want || ok != tc.ok {
			t.Fatalf("pageName(%q) = %q, %v; want %q, %v", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNewHandler_DottedPageNames(t *testing.T) {
	templates := view.NewFuncSet().
		Register("v1..2", func(s *view.Scope) error { return s.Print("release") }).
		Register("secret", func(s *view.Scope) error { return s.Print("secret") })
	h := NewHandler(view.New(view.WithEvaluator(templates)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1..2", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "release" {
		t.Fatalf("dotted page: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/docs/../secret"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected traversal to be rejected, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewHandler_GuardStatus(t *testing.T) {
	h := NewHandler(newTestRenderer(), WithGuard(func(*http.Request) error {
		return StatusError{Code: http.StatusUnauthorized}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	h = NewHandler(newTestRenderer(), WithGuard(func(*http.Request) error {
		return errors.New("nope")
	}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestNewHandler_DoesNotMutateSharedRenderer(t *testing.T) {
	renderer := newTestRenderer()
	h := NewHandler(renderer, WithHelpers(func(_ *http.Request, scoped *view.Renderer) {
		scoped.RegisterHelper("extra", view.HelperFunc(func() (string, error) { return "", nil }))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(renderer.Helpers()) != 0 {
		t.Fatalf("shared renderer gained helpers: %v", renderer.Helpers())
	}
}
