// Package script evaluates Starlark scripts as templates. A script produces
// output with echo (or print, which appends a newline) and reaches the view
// through the helper, partial and wrap builtins:
//
//	echo("<p>", name, "</p>")
//	echo(helper("root_uri").set_scheme("https").render())
//	echo(partial("sidebar", {"items": items}))
//	wrap("layout", {"title": "Home"})
package script

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/goliatone/go-viewrender/pkg/view"
)

// Option configures the evaluator.
type Option func(*Evaluator)

// WithExtension overrides the extension appended to script paths.
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

// WithMaxSteps bounds the number of Starlark computation steps per script.
// Zero means unbounded.
func WithMaxSteps(steps uint64) Option {
	return func(e *Evaluator) {
		e.maxSteps = steps
	}
}

// Evaluator runs Starlark scripts read from an fs.FS.
type Evaluator struct {
	files     fs.FS
	extension string
	maxSteps  uint64
	options   *syntax.FileOptions
}

var _ view.Evaluator = (*Evaluator)(nil)

// New builds an evaluator over files.
func New(files fs.FS, options ...Option) (*Evaluator, error) {
	if files == nil {
		return nil, errors.New("script: template fs is required")
	}
	e := &Evaluator{
		files:     files,
		extension: ".star",
		options: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
		},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e, nil
}

// Evaluate executes the script at path. Cancelling the scope's context stops
// the script at its next step.
func (e *Evaluator) Evaluate(scope *view.Scope, path string) error {
	name := path
	if !strings.HasSuffix(name, e.extension) {
		name += e.extension
	}

	src, err := fs.ReadFile(e.files, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return view.TemplateNotFound(name)
		}
		return fmt.Errorf("script: read %q: %w", name, err)
	}

	predeclared, err := globals(scope)
	if err != nil {
		return err
	}

	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			_, _ = scope.WriteString(msg + "\n")
		},
	}
	if e.maxSteps > 0 {
		thread.SetMaxExecutionSteps(e.maxSteps)
	}
	if ctx := scope.Context(); ctx != nil {
		stop := context.AfterFunc(ctx, func() {
			thread.Cancel(ctx.Err().Error())
		})
		defer stop()
	}

	if _, err := starlark.ExecFileOptions(e.options, thread, name, src, predeclared); err != nil {
		if cause := scope.Err(); cause != nil {
			return cause
		}
		return fmt.Errorf("script: exec %q: %w", name, err)
	}
	return nil
}

// globals exposes render data as individual globals and as the "data" dict.
// Builtins shadow data keys of the same name.
func globals(scope *view.Scope) (starlark.StringDict, error) {
	data := scope.Data()
	dict := starlark.NewDict(len(data))
	predeclared := make(starlark.StringDict, len(data)+6)

	for key, value := range data {
		converted, err := toStarlarkValue(value)
		if err != nil {
			return nil, fmt.Errorf("script: data %q: %w", key, err)
		}
		if hv, ok := converted.(*helperValue); ok {
			hv.fail = scope.Fail
		}
		if err := dict.SetKey(starlark.String(key), converted); err != nil {
			return nil, err
		}
		if isIdentifier(key) {
			predeclared[key] = converted
		}
	}

	predeclared["data"] = dict
	predeclared["echo"] = starlark.NewBuiltin("echo", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, errors.New("echo: unexpected keyword arguments")
		}
		for _, arg := range args {
			if _, err := scope.WriteString(text(arg)); err != nil {
				return nil, err
			}
		}
		return starlark.None, nil
	})
	predeclared["escape"] = starlark.NewBuiltin("escape", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var value starlark.Value
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value); err != nil {
			return nil, err
		}
		return starlark.String(html.EscapeString(text(value))), nil
	})
	predeclared["helper"] = starlark.NewBuiltin("helper", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var key string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &key); err != nil {
			return nil, err
		}
		helper, err := scope.Helper(key)
		if err != nil {
			return nil, err
		}
		return newHelperValue(key, helper, scope.Fail), nil
	})
	predeclared["partial"] = starlark.NewBuiltin("partial", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		path, data, err := unpackTemplateArgs(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		out, err := scope.Partial(path, data)
		if err != nil {
			return nil, err
		}
		return starlark.String(out), nil
	})
	predeclared["wrap"] = starlark.NewBuiltin("wrap", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		path, data, err := unpackTemplateArgs(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		if err := scope.Wrap(path, data); err != nil {
			return nil, err
		}
		return starlark.None, nil
	})
	return predeclared, nil
}

func unpackTemplateArgs(name string, args starlark.Tuple, kwargs []starlark.Tuple) (string, view.Data, error) {
	var (
		path  string
		value starlark.Value = starlark.None
	)
	if err := starlark.UnpackArgs(name, args, kwargs, "path", &path, "data?", &value); err != nil {
		return "", nil, err
	}
	converted, err := fromStarlarkValue(value)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", name, err)
	}
	data, ok := view.AsData(converted)
	if !ok {
		return "", nil, fmt.Errorf("%s: data must be a dict, got %s", name, value.Type())
	}
	return path, data, nil
}

// text renders a value the way echo emits it: strings verbatim, everything
// else in its Starlark representation.
func text(v starlark.Value) string {
	if s, ok := starlark.AsString(v); ok {
		return s
	}
	return v.String()
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
