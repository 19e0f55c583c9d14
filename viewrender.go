// Package viewrender renders templates with view helpers, partials and
// layout wrapping. It wires the evaluators under pkg/evaluators to the core
// renderer in pkg/view.
package viewrender

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-viewrender/pkg/evaluators/htmltmpl"
	"github.com/goliatone/go-viewrender/pkg/evaluators/pongo"
	"github.com/goliatone/go-viewrender/pkg/evaluators/script"
	"github.com/goliatone/go-viewrender/pkg/view"
)

// Renderer aliases view.Renderer for callers importing only the root package.
type Renderer = view.Renderer

// Data aliases the render context type.
type Data = view.Data

// Helper aliases the view helper contract.
type Helper = view.Helper

// Engine names a template evaluator.
type Engine string

const (
	EnginePongo    Engine = "pongo"
	EngineHTML     Engine = "html"
	EngineStarlark Engine = "starlark"
)

// Engines lists the supported engines.
func Engines() []Engine {
	return []Engine{EnginePongo, EngineHTML, EngineStarlark}
}

// ParseEngine maps a configured name to an Engine.
func ParseEngine(name string) (Engine, error) {
	engine := Engine(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Engines() {
		if engine == known {
			return engine, nil
		}
	}
	return "", fmt.Errorf("viewrender: unknown engine %q", name)
}

// EvaluatorOptions carries the engine specific knobs. Zero values keep each
// engine's defaults, except CacheSize where zero disables the html cache.
type EvaluatorOptions struct {
	// Dir loads pongo templates through the local filesystem loader instead
	// of the fs.FS.
	Dir       string
	Extension string
	Reload    bool
	CacheSize int
	MaxSteps  uint64
}

// NewEvaluator builds the evaluator for engine reading templates from fsys.
func NewEvaluator(engine Engine, fsys fs.FS, opts EvaluatorOptions) (view.Evaluator, error) {
	switch engine {
	case EnginePongo:
		options := []pongo.Option{
			pongo.WithExtension(opts.Extension),
			pongo.WithReload(opts.Reload),
		}
		if opts.Dir != "" {
			options = append(options, pongo.WithBaseDir(opts.Dir))
		} else {
			options = append(options, pongo.WithFS(fsys))
		}
		return pongo.New(options...)
	case EngineHTML:
		return htmltmpl.New(fsys,
			htmltmpl.WithExtension(opts.Extension),
			htmltmpl.WithCacheSize(opts.CacheSize),
		)
	case EngineStarlark:
		return script.New(fsys,
			script.WithExtension(opts.Extension),
			script.WithMaxSteps(opts.MaxSteps),
		)
	default:
		return nil, fmt.Errorf("viewrender: unknown engine %q", engine)
	}
}

// NewRenderer builds a renderer evaluating engine templates from fsys.
func NewRenderer(engine Engine, fsys fs.FS, opts EvaluatorOptions, options ...view.Option) (*view.Renderer, error) {
	evaluator, err := NewEvaluator(engine, fsys, opts)
	if err != nil {
		return nil, err
	}
	return view.New(append([]view.Option{view.WithEvaluator(evaluator)}, options...)...), nil
}
