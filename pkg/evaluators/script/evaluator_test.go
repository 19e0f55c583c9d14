package script_test

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-viewrender/pkg/evaluators/script"
	"github.com/goliatone/go-viewrender/pkg/helpers"
	"github.com/goliatone/go-viewrender/pkg/testsupport"
	"github.com/goliatone/go-viewrender/pkg/view"
)

//go:embed testdata/templates/*.star
var embeddedTemplates embed.FS

func TestEvaluator_Golden(t *testing.T) {
	renderer := newRenderer(t)
	renderer.RegisterHelper(helpers.RootURIKey, helpers.NewRootURIHelper(helpers.StaticRequest("http://example.com")))

	cases := []struct {
		template string
		golden   string
	}{
		{"simple", "simple.golden"},
		{"data", "data.golden"},
		{"partial_parent", "partial.golden"},
		{"wrapped", "wrapped.golden"},
		{"helper", "helper.golden"},
	}

	data := view.Data(testsupport.MustLoadData(t, filepath.Join("testdata", "data.yaml")))

	for _, tc := range cases {
		t.Run(tc.template, func(t *testing.T) {
			got, err := renderer.Render(testsupport.Context(), tc.template, data)
			if err != nil {
				t.Fatalf("render %s: %v", tc.template, err)
			}
			testsupport.AssertGolden(t, filepath.Join("testdata", tc.golden), got)
		})
	}
}

func TestEvaluator_LoopAndEscape(t *testing.T) {
	renderer := newRenderer(t)

	got, err := renderer.Render(testsupport.Context(), "loop", view.Data{"items": []string{"a", "<b>"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<ul><li>a</li><li>&lt;b&gt;</li></ul>"; got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEvaluator_PartialDoesNotSeeHelpers(t *testing.T) {
	renderer := newRenderer(t)
	renderer.RegisterHelper(helpers.RootURIKey, helpers.NewRootURIHelper(helpers.StaticRequest("http://example.com")))

	_, err := renderer.Render(testsupport.Context(), "partial_helper", nil)
	if !errors.Is(err, view.ErrHelperNotFound) {
		t.Fatalf("expected ErrHelperNotFound, got %v", err)
	}
}

func TestEvaluator_ErrorKeepsOriginalAndUnwinds(t *testing.T) {
	renderer := newRenderer(t)

	stack := view.NewCaptureStack()
	ctx := view.WithCaptureStack(testsupport.Context(), stack)

	_, err := renderer.Render(ctx, "exception", nil)
	if !errors.Is(err, view.ErrHelperNotFound) {
		t.Fatalf("expected ErrHelperNotFound, got %v", err)
	}
	if stack.Depth() != 0 {
		t.Fatalf("capture stack leaked %d levels", stack.Depth())
	}
}

func TestEvaluator_StepLimitAndCancellation(t *testing.T) {
	templatesFS := templates(t)

	limited, err := script.New(templatesFS, script.WithMaxSteps(10_000))
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	if _, err := view.New(view.WithEvaluator(limited)).Render(testsupport.Context(), "spin", nil); err == nil {
		t.Fatal("expected step limit error")
	}

	unbounded, err := script.New(templatesFS)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	ctx, cancel := context.WithCancel(testsupport.Context())
	cancel()
	if _, err := view.New(view.WithEvaluator(unbounded)).Render(ctx, "spin", nil); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestEvaluator_MissingTemplate(t *testing.T) {
	renderer := newRenderer(t)
	if _, err := renderer.Render(testsupport.Context(), "nope", nil); !errors.Is(err, view.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func templates(t *testing.T) fs.FS {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	return templatesFS
}

func newRenderer(t *testing.T) *view.Renderer {
	t.Helper()

	evaluator, err := script.New(templates(t))
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	return view.New(view.WithEvaluator(evaluator))
}
