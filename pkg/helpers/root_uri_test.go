package helpers_test

import (
	"crypto/tls"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-viewrender/pkg/helpers"
)

type stubRequest struct {
	base  string
	calls []string
}

func (s *stubRequest) BaseURIForPath(path string) string {
	s.calls = append(s.calls, path)
	return s.base
}

func TestRootURIHelper_DefaultScheme(t *testing.T) {
	req := &stubRequest{base: "http://example.com:8080/"}
	helper := helpers.NewRootURIHelper(req)

	got, err := helper.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "http://example.com:8080/" {
		t.Fatalf("unexpected uri %q", got)
	}
	if len(req.calls) != 1 || req.calls[0] != "/" {
		t.Fatalf("expected base lookup for \"/\", got %v", req.calls)
	}
}

func TestRootURIHelper_OneShotSchemeOverride(t *testing.T) {
	helper := helpers.NewRootURIHelper(&stubRequest{base: "http://example.com/"})

	got, err := helper.SetScheme("https").Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "https://example.com/" {
		t.Fatalf("override not applied: %q", got)
	}

	got, err = helper.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "http://example.com/" {
		t.Fatalf("override leaked into second render: %q", got)
	}
}

func TestRootURIHelper_SetSchemeReturnsSelf(t *testing.T) {
	helper := helpers.NewRootURIHelper(&stubRequest{base: "http://example.com/"})
	if helper.SetScheme("ftp") != helper {
		t.Fatal("SetScheme must return the helper")
	}
}

func TestRootURIHelper_BaseWithoutScheme(t *testing.T) {
	helper := helpers.NewRootURIHelper(&stubRequest{base: "example.com/"})

	if got, err := helper.Render(); err != nil || got != "example.com/" {
		t.Fatalf("plain render = %q, %v", got, err)
	}

	_, err := helper.SetScheme("https").Render()
	if !errors.Is(err, helpers.ErrMalformedBaseURI) {
		t.Fatalf("expected ErrMalformedBaseURI, got %v", err)
	}

	if got, err := helper.Render(); err != nil || got != "example.com/" {
		t.Fatalf("override not cleared after failure: %q, %v", got, err)
	}
}

func TestRootURIHelper_NoRequest(t *testing.T) {
	if _, err := helpers.NewRootURIHelper(nil).Render(); !errors.Is(err, helpers.ErrNoRequest) {
		t.Fatalf("expected ErrNoRequest, got %v", err)
	}
}

func TestRootURIHelper_ConcurrentRenders(t *testing.T) {
	helper := helpers.NewRootURIHelper(helpers.StaticRequest("http://example.com"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := helper.Render(); err != nil {
				t.Errorf("render: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestHTTPRequest_BaseURIForPath(t *testing.T) {
	plain := httptest.NewRequest("GET", "http://example.com:8080/page", nil)
	if got := (helpers.HTTPRequest{Request: plain}).BaseURIForPath("/"); got != "http://example.com:8080/" {
		t.Fatalf("plain request uri %q", got)
	}

	secure := httptest.NewRequest("GET", "http://example.com/page", nil)
	secure.TLS = &tls.ConnectionState{}
	if got := (helpers.HTTPRequest{Request: secure}).BaseURIForPath("assets"); got != "https://example.com/assets" {
		t.Fatalf("tls request uri %q", got)
	}

	proxied := httptest.NewRequest("GET", "http://internal:9000/page", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS, http")
	proxied.Header.Set("X-Forwarded-Host", "public.example.com")
	if got := (helpers.HTTPRequest{Request: proxied}).BaseURIForPath("/"); got != "http://internal:9000/" {
		t.Fatalf("untrusted forwarded headers applied: %q", got)
	}
	if got := (helpers.HTTPRequest{Request: proxied, TrustForwarded: true}).BaseURIForPath("/"); got != "https://public.example.com/" {
		t.Fatalf("forwarded request uri %q", got)
	}
}

func TestStaticRequest_BaseURIForPath(t *testing.T) {
	if got := helpers.StaticRequest("https://example.com/").BaseURIForPath("/"); got != "https://example.com/" {
		t.Fatalf("unexpected uri %q", got)
	}
}
