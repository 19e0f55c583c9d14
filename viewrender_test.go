package viewrender

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-viewrender/pkg/helpers"
	"github.com/goliatone/go-viewrender/pkg/view"
)

func TestParseEngine(t *testing.T) {
	cases := map[string]Engine{
		"pongo":    EnginePongo,
		" HTML ":   EngineHTML,
		"Starlark": EngineStarlark,
	}
	for input, want := range cases {
		got, err := ParseEngine(input)
		if err != nil {
			t.Fatalf("ParseEngine(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseEngine(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseEngine("mustache"); err == nil {
		t.Fatalf("expected unknown engine error")
	}
	if _, err := EmbeddedTemplates("mustache"); err == nil {
		t.Fatalf("expected unknown engine error for embedded templates")
	}
}

func TestEmbeddedTemplatesRender(t *testing.T) {
	for _, engine := range Engines() {
		t.Run(string(engine), func(t *testing.T) {
			renderer := demoRenderer(t, engine)

			out, err := renderer.Render(context.Background(), "index", nil)
			if err != nil {
				t.Fatalf("render index: %v", err)
			}
			for _, want := range []string{
				"<title>Home</title>",
				`<link rel="stylesheet" href="/assets/viewrender.css">`,
				`<a href="http://localhost:8080/about">About</a>`,
				"<h1>Welcome</h1>",
				"rendered by the " + string(engine) + " engine at http://localhost:8080/.",
			} {
				if !strings.Contains(out, want) {
					t.Fatalf("index output missing %q:\n%s", want, out)
				}
			}
			if strings.Index(out, "<main>") > strings.Index(out, "<h1>Welcome</h1>") {
				t.Fatalf("expected page content inside the layout:\n%s", out)
			}

			out, err = renderer.Render(context.Background(), "about", nil)
			if err != nil {
				t.Fatalf("render about: %v", err)
			}
			for _, want := range []string{
				"<title>About</title>",
				"<strong>viewrender</strong>",
				"<em>templates</em>",
			} {
				if !strings.Contains(out, want) {
					t.Fatalf("about output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestEmbeddedTemplatesMissingPage(t *testing.T) {
	for _, engine := range Engines() {
		renderer := demoRenderer(t, engine)
		_, err := renderer.Render(context.Background(), "missing", nil)
		if !errors.Is(err, view.ErrTemplateNotFound) {
			t.Fatalf("%s: expected ErrTemplateNotFound, got %v", engine, err)
		}
	}
}

func demoRenderer(t *testing.T, engine Engine) *Renderer {
	t.Helper()

	fsys, err := EmbeddedTemplates(engine)
	if err != nil {
		t.Fatalf("embedded templates: %v", err)
	}
	renderer, err := NewRenderer(engine, fsys, EvaluatorOptions{})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	renderer.RegisterHelper(helpers.RootURIKey, helpers.NewRootURIHelper(helpers.StaticRequest("http://localhost:8080")))
	renderer.RegisterHelper(helpers.MarkdownKey, helpers.NewMarkdownHelper())
	renderer.RegisterHelper(helpers.AssetKey, helpers.NewAssetHelper(helpers.NewRendererConfig(helpers.ThemeConfig{
		Name:        "default",
		AssetPrefix: "/assets",
		Assets:      map[string]string{"stylesheet": "viewrender.css"},
	})))
	return renderer
}

func TestHelperMethodErrorsReturnUnchanged(t *testing.T) {
	errHelper := errors.New("helper failed")
	sources := map[Engine]fstest.MapFS{
		EnginePongo: {
			"boom.tpl":   {Data: []byte(`before {{ helper("boom").Render() }} after`)},
			"scheme.tpl": {Data: []byte(`{{ helper("root_uri").SetScheme("https").Render() }}`)},
			"outer.tpl":  {Data: []byte(`{{ partial("inner", "root", root) }}`)},
			"inner.tpl":  {Data: []byte(`{{ root.SetScheme("https").Render() }}`)},
		},
		EngineHTML: {
			"boom.tmpl":   {Data: []byte(`before {{ (helper "boom").Render }} after`)},
			"scheme.tmpl": {Data: []byte(`{{ ((helper "root_uri").SetScheme "https").Render }}`)},
			"outer.tmpl":  {Data: []byte(`{{ partial "inner" (dict "root" .root) }}`)},
			"inner.tmpl":  {Data: []byte(`{{ (.root.SetScheme "https").Render }}`)},
		},
		EngineStarlark: {
			"boom.star":   {Data: []byte(`echo("before ", helper("boom").render(), " after")`)},
			"scheme.star": {Data: []byte(`echo(helper("root_uri").set_scheme("https").render())`)},
			"outer.star":  {Data: []byte(`echo(partial("inner", {"root": root}))`)},
			"inner.star":  {Data: []byte(`echo(root.set_scheme("https").render())`)},
		},
	}

	for _, engine := range Engines() {
		t.Run(string(engine), func(t *testing.T) {
			renderer, err := NewRenderer(engine, sources[engine], EvaluatorOptions{})
			if err != nil {
				t.Fatalf("new renderer: %v", err)
			}
			root := helpers.NewRootURIHelper(helpers.StaticRequest(""))
			renderer.RegisterHelper("boom", view.HelperFunc(func() (string, error) { return "", errHelper }))
			renderer.RegisterHelper(helpers.RootURIKey, root)

			_, err = renderer.Render(context.Background(), "boom", nil)
			if err != errHelper {
				t.Fatalf("expected the helper error itself, got %v", err)
			}

			_, err = renderer.Render(context.Background(), "scheme", nil)
			if !errors.Is(err, helpers.ErrMalformedBaseURI) || !strings.HasPrefix(err.Error(), "helpers:") {
				t.Fatalf("expected unwrapped ErrMalformedBaseURI, got %v", err)
			}

			_, err = renderer.Render(context.Background(), "outer", Data{"root": root})
			if !errors.Is(err, helpers.ErrMalformedBaseURI) || !strings.HasPrefix(err.Error(), "helpers:") {
				t.Fatalf("expected unwrapped ErrMalformedBaseURI from the partial, got %v", err)
			}
		})
	}
}
