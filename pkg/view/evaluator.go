package view

import (
	"sort"
	"sync"
)

// Evaluator is the template evaluation primitive. Evaluate runs the template
// found at path, reading data and helpers through scope and writing output to
// it. Everything written lands in the scope's current capture buffer.
type Evaluator interface {
	Evaluate(scope *Scope, path string) error
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(scope *Scope, path string) error

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(scope *Scope, path string) error {
	return f(scope, path)
}

// TemplateFunc is a template compiled as Go code.
type TemplateFunc func(s *Scope) error

// FuncSet is an Evaluator whose templates are Go functions keyed by path.
type FuncSet struct {
	mu        sync.RWMutex
	templates map[string]TemplateFunc
}

var _ Evaluator = (*FuncSet)(nil)

// NewFuncSet creates an empty set.
func NewFuncSet() *FuncSet {
	return &FuncSet{templates: make(map[string]TemplateFunc)}
}

// Register stores fn under path, replacing any previous template, and returns
// the set for chaining.
func (f *FuncSet) Register(path string, fn TemplateFunc) *FuncSet {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.templates == nil {
		f.templates = make(map[string]TemplateFunc)
	}
	f.templates[path] = fn
	return f
}

// Paths lists the registered template paths, sorted.
func (f *FuncSet) Paths() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	paths := make([]string, 0, len(f.templates))
	for path := range f.templates {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Evaluate runs the template registered under path.
func (f *FuncSet) Evaluate(scope *Scope, path string) error {
	f.mu.RLock()
	fn, ok := f.templates[path]
	f.mu.RUnlock()

	if !ok || fn == nil {
		return TemplateNotFound(path)
	}
	return fn(scope)
}
