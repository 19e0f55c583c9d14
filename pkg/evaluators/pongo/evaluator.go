package pongo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-viewrender/pkg/view"
)

// Option configures the pongo2 evaluator before construction.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	extension string
	reload    bool
	globals   map[string]any
	filters   map[string]func(input any, param any) (any, error)
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the extension appended to template paths.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithReload disables the compiled template cache so edits on disk are
// picked up on the next evaluation.
func WithReload(reload bool) Option {
	return func(cfg *config) {
		cfg.reload = reload
	}
}

// WithGlobals seeds values visible to every template. Render data takes
// precedence.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// WithFilter registers a template filter when the evaluator is built.
// Filters are process wide in pongo2; an existing filter with the same name
// is kept.
func WithFilter(name string, fn func(input any, param any) (any, error)) Option {
	return func(cfg *config) {
		if cfg.filters == nil {
			cfg.filters = make(map[string]func(any, any) (any, error))
		}
		cfg.filters[strings.TrimSpace(name)] = fn
	}
}

// Evaluator runs pongo2 templates against a view scope. Templates see the
// render data as variables and under "data", plus the functions helper,
// partial and wrap:
//
//	{{ helper("root_uri").SetScheme("https").Render() }}
//	{{ partial("sidebar", items) }}
//	{{ wrap("layout", "title", "Home") }}
type Evaluator struct {
	mu sync.RWMutex

	files       fs.FS
	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	tplExt      string
	reload      bool
}

var _ view.Evaluator = (*Evaluator)(nil)

// New constructs an Evaluator using the provided configuration options.
func New(options ...Option) (*Evaluator, error) {
	cfg := &config{
		extension: ".tpl",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("pongo: need to provide either base dir or fs.FS")
	}

	var (
		loaders []pongo2.TemplateLoader
		files   = cfg.templates
	)
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
		files = os.DirFS(cfg.baseDir)
	} else {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	set := pongo2.NewSet("viewrender", loaders...)
	set.Globals = make(pongo2.Context)
	for key, value := range cfg.globals {
		if !identifier.MatchString(key) {
			return nil, fmt.Errorf("pongo: invalid global name %q", key)
		}
		set.Globals[key] = value
	}

	for name, fn := range cfg.filters {
		if err := registerFilter(name, fn); err != nil {
			return nil, err
		}
	}

	return &Evaluator{
		files:       files,
		templateSet: set,
		templates:   make(map[string]*pongo2.Template),
		tplExt:      cfg.extension,
		reload:      cfg.reload,
	}, nil
}

// Evaluate executes the template at path, streaming output into scope.
func (e *Evaluator) Evaluate(scope *view.Scope, path string) error {
	if e == nil || e.templateSet == nil {
		return errors.New("pongo: evaluator is nil")
	}

	templatePath := path
	if !strings.HasSuffix(templatePath, e.tplExt) {
		templatePath += e.tplExt
	}

	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return err
	}

	if err := tmpl.ExecuteWriterUnbuffered(buildContext(scope), scope); err != nil {
		if cause := scope.Err(); cause != nil {
			return cause
		}
		return fmt.Errorf("pongo: execute template %q: %w", templatePath, err)
	}
	return nil
}

func (e *Evaluator) getTemplate(path string) (*pongo2.Template, error) {
	if _, err := fs.Stat(e.files, path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, view.TemplateNotFound(path)
		}
		return nil, fmt.Errorf("pongo: stat template %q: %w", path, err)
	}

	if e.reload {
		tmpl, err := e.templateSet.FromFile(path)
		if err != nil {
			return nil, fmt.Errorf("pongo: load template %q: %w", path, err)
		}
		return tmpl, nil
	}

	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", path, err)
	}

	e.templates[path] = tmpl
	return tmpl, nil
}

var identifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// buildContext exposes scope to a template. The helper, partial and wrap
// functions shadow data keys of the same name; the raw map stays reachable
// as data. Helpers passed in data are exposed like helper() results.
func buildContext(scope *view.Scope) pongo2.Context {
	data := scope.Data()
	ctx := make(pongo2.Context, len(data)+4)
	for key, value := range data {
		if !identifier.MatchString(key) {
			continue
		}
		if helper, ok := value.(view.Helper); ok && helper != nil {
			ctx[key] = helperMethods(scope, helper)
			continue
		}
		ctx[key] = value
	}
	if wrapped, ok := data.Value(view.WrappedContentKey); ok {
		ctx[view.WrappedContentKey] = pongo2.AsSafeValue(wrapped)
	}

	ctx["data"] = map[string]any(data)
	ctx["helper"] = func(key string) (*pongo2.Value, error) {
		helper, err := scope.Helper(key)
		if err != nil {
			return nil, err
		}
		return pongo2.AsValue(helperMethods(scope, helper)), nil
	}
	ctx["partial"] = func(path string, args ...any) (*pongo2.Value, error) {
		data, err := argsToData(args)
		if err != nil {
			return nil, err
		}
		out, err := scope.Partial(path, data)
		if err != nil {
			return nil, err
		}
		return pongo2.AsSafeValue(out), nil
	}
	ctx["wrap"] = func(path string, args ...any) (string, error) {
		data, err := argsToData(args)
		if err != nil {
			return "", err
		}
		return "", scope.Wrap(path, data)
	}
	return ctx
}

// argsToData accepts either a single mapping or alternating key/value pairs.
func argsToData(args []any) (view.Data, error) {
	data, err := collectArgs(args)
	if err != nil {
		return nil, err
	}
	return unwrapHelpers(data), nil
}

func collectArgs(args []any) (view.Data, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) == 1 {
		if data, ok := view.AsData(args[0]); ok {
			return data, nil
		}
		if ctx, ok := args[0].(pongo2.Context); ok {
			return view.Data(ctx), nil
		}
		return nil, fmt.Errorf("pongo: expected mapping, got %T", args[0])
	}
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("pongo: odd number of key/value arguments (%d)", len(args))
	}
	data := make(view.Data, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, fmt.Errorf("pongo: argument %d: key must be a string, got %T", i, args[i])
		}
		data[key] = args[i+1]
	}
	return data, nil
}

func registerFilter(name string, fn func(input any, param any) (any, error)) error {
	if name == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return nil
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}
	return pongo2.RegisterFilter(name, filter)
}
