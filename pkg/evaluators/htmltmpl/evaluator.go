// Package htmltmpl evaluates html/template files against a view scope.
package htmltmpl

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/golang/groupcache/lru"

	"github.com/goliatone/go-viewrender/pkg/view"
)

// Option configures the evaluator.
type Option func(*Evaluator)

// WithExtension overrides the extension appended to template paths.
func WithExtension(ext string) Option {
	return func(e *Evaluator) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.extension = ext
	}
}

// WithCacheSize bounds the number of parsed templates kept in memory. Zero
// disables caching.
func WithCacheSize(size int) Option {
	return func(e *Evaluator) {
		e.cacheSize = size
	}
}

// WithFuncs adds template functions available to every template. The
// built-in helper, partial, wrap and raw functions cannot be replaced.
func WithFuncs(funcs template.FuncMap) Option {
	return func(e *Evaluator) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// Evaluator parses templates from an fs.FS on first use. Templates are
// executed with the render data as dot and these functions:
//
//	{{ ((helper "root_uri").SetScheme "https").Render }}
//	{{ partial "sidebar" . }}
//	{{ wrap "layout" (dict "title" "Home") }}
//	{{ raw .wrapped_content }}
type Evaluator struct {
	files     fs.FS
	extension string
	cacheSize int
	funcs     template.FuncMap

	mu    sync.Mutex
	cache *lru.Cache
}

var _ view.Evaluator = (*Evaluator)(nil)

// New builds an evaluator over files.
func New(files fs.FS, options ...Option) (*Evaluator, error) {
	if files == nil {
		return nil, errors.New("htmltmpl: template fs is required")
	}
	e := &Evaluator{
		files:     files,
		extension: ".tmpl",
		cacheSize: 64,
		funcs:     template.FuncMap{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.cacheSize > 0 {
		e.cache = lru.New(e.cacheSize)
	}
	return e, nil
}

// Evaluate executes the template at path with functions bound to scope.
func (e *Evaluator) Evaluate(scope *view.Scope, path string) error {
	name := path
	if !strings.HasSuffix(name, e.extension) {
		name += e.extension
	}

	base, err := e.lookup(name)
	if err != nil {
		return err
	}

	tmpl, err := base.Clone()
	if err != nil {
		return fmt.Errorf("htmltmpl: clone %q: %w", name, err)
	}
	tmpl.Funcs(scopeFuncs(scope))

	if err := tmpl.Execute(scope, templateData(scope.Data())); err != nil {
		if cause := scope.Err(); cause != nil {
			return cause
		}
		if cause := calledError(err); cause != nil {
			return scope.Fail(cause)
		}
		return fmt.Errorf("htmltmpl: execute %q: %w", name, err)
	}
	return nil
}

func (e *Evaluator) lookup(name string) (*template.Template, error) {
	if e.cache != nil {
		e.mu.Lock()
		cached, ok := e.cache.Get(name)
		e.mu.Unlock()
		if ok {
			return cached.(*template.Template), nil
		}
	}

	src, err := fs.ReadFile(e.files, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, view.TemplateNotFound(name)
		}
		return nil, fmt.Errorf("htmltmpl: read %q: %w", name, err)
	}

	tmpl, err := template.New(name).Funcs(e.funcs).Funcs(unboundFuncs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("htmltmpl: parse %q: %w", name, err)
	}

	if e.cache != nil {
		e.mu.Lock()
		e.cache.Add(name, tmpl)
		e.mu.Unlock()
	}
	return tmpl, nil
}

// unboundFuncs declare the scope functions at parse time. Evaluate replaces
// them on a clone before execution.
var unboundFuncs = template.FuncMap{
	"helper":  func(string) (view.Helper, error) { panic("unbound use of helper") },
	"partial": func(string, ...any) (template.HTML, error) { panic("unbound use of partial") },
	"wrap":    func(string, ...any) (string, error) { panic("unbound use of wrap") },
	"raw":     raw,
	"dict":    dict,
}

func scopeFuncs(scope *view.Scope) template.FuncMap {
	return template.FuncMap{
		"helper": scope.Helper,
		"partial": func(path string, args ...any) (template.HTML, error) {
			data, err := argData(args)
			if err != nil {
				return "", err
			}
			out, err := scope.Partial(path, data)
			return template.HTML(out), err
		},
		"wrap": func(path string, args ...any) (string, error) {
			data, err := argData(args)
			if err != nil {
				return "", err
			}
			return "", scope.Wrap(path, data)
		},
	}
}

// templateData marks wrapped content as trusted markup so layouts can emit
// it without the raw function.
func templateData(data view.Data) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = value
	}
	if wrapped, ok := out[view.WrappedContentKey].(string); ok {
		out[view.WrappedContentKey] = template.HTML(wrapped)
	}
	return out
}

// calledError returns the error a template function or helper method
// returned. text/template reports it inside an ExecError as
// "error calling NAME: %w".
func calledError(err error) error {
	var execErr texttemplate.ExecError
	if !errors.As(err, &execErr) || execErr.Err == nil {
		return nil
	}
	return errors.Unwrap(execErr.Err)
}

func argData(args []any) (view.Data, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		if data, ok := view.AsData(args[0]); ok {
			return data, nil
		}
		return nil, fmt.Errorf("htmltmpl: expected mapping, got %T", args[0])
	default:
		m, err := dict(args...)
		return view.Data(m), err
	}
}

func raw(value any) template.HTML {
	switch v := value.(type) {
	case nil:
		return ""
	case template.HTML:
		return v
	case string:
		return template.HTML(v)
	default:
		return template.HTML(fmt.Sprint(v))
	}
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("htmltmpl: dict needs key/value pairs, got %d arguments", len(pairs))
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("htmltmpl: dict key %d must be a string, got %T", i/2, pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}
