package view

import (
	"context"
	"log/slog"
	"maps"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithEvaluator sets the template evaluation primitive.
func WithEvaluator(evaluator Evaluator) Option {
	return func(r *Renderer) {
		r.evaluator = evaluator
	}
}

// WithHelpers registers each helper under its key.
func WithHelpers(helpers map[string]Helper) Option {
	return func(r *Renderer) {
		for key, helper := range helpers {
			r.helpers.Register(key, helper)
		}
	}
}

// WithTemplateAliases maps logical template names to evaluator paths. Aliases
// carry over to the renderers used for partials and wrappers.
func WithTemplateAliases(aliases map[string]string) Option {
	return func(r *Renderer) {
		if len(aliases) == 0 {
			return
		}
		if r.aliases == nil {
			r.aliases = make(map[string]string, len(aliases))
		}
		maps.Copy(r.aliases, aliases)
	}
}

// WithLogger enables debug records for completed renders.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// Renderer evaluates templates and returns their captured output.
type Renderer struct {
	evaluator Evaluator
	helpers   *HelperRegistry
	aliases   map[string]string
	logger    *slog.Logger
}

// New constructs a Renderer applying the provided options.
func New(options ...Option) *Renderer {
	r := &Renderer{
		helpers: NewHelperRegistry(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// RegisterHelper stores helper under key, replacing any prior entry.
func (r *Renderer) RegisterHelper(key string, helper Helper) {
	r.helpers.Register(key, helper)
}

// Helper returns the helper registered under key.
func (r *Renderer) Helper(key string) (Helper, error) {
	return r.helpers.Get(key)
}

// Helpers lists registered helper keys, sorted.
func (r *Renderer) Helpers() []string {
	return r.helpers.Keys()
}

// Clone returns a renderer sharing the evaluator and configuration with an
// independent copy of the helper registry. Hosts use it to add request scoped
// helpers without touching the shared renderer.
func (r *Renderer) Clone() *Renderer {
	cloned := r.fresh()
	cloned.helpers = r.helpers.Clone()
	return cloned
}

// Render evaluates the template at path with data and returns the captured
// output.
//
// The capture scope opened for the call is closed on every exit path. Errors
// are returned as the evaluator produced them and panics continue unwinding
// unchanged once the scope is closed.
func (r *Renderer) Render(ctx context.Context, path string, data Data) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stack, ok := CaptureStackFrom(ctx)
	if !ok {
		stack = NewCaptureStack()
	}
	return r.render(ctx, stack, path, data)
}

func (r *Renderer) render(ctx context.Context, stack *CaptureStack, path string, data Data) (string, error) {
	if r.evaluator == nil {
		return "", ErrNoEvaluator
	}

	base := stack.Depth()
	stack.Push()
	defer stack.Unwind(base)

	scope := &Scope{
		ctx:      ctx,
		renderer: r,
		stack:    stack,
		path:     r.resolve(path),
		data:     data.Clone(),
	}
	if err := r.evaluator.Evaluate(scope, scope.path); err != nil {
		return "", err
	}

	out := stack.Contents()
	if r.logger != nil {
		r.logger.DebugContext(ctx, "template rendered",
			"path", scope.path,
			"depth", base,
			"bytes", len(out),
		)
	}
	return out, nil
}

// fresh returns a renderer with the same environment and an empty registry.
func (r *Renderer) fresh() *Renderer {
	return &Renderer{
		evaluator: r.evaluator,
		helpers:   NewHelperRegistry(),
		aliases:   r.aliases,
		logger:    r.logger,
	}
}

func (r *Renderer) resolve(path string) string {
	if target, ok := r.aliases[path]; ok && target != "" {
		return target
	}
	return path
}
