package view

import (
	"errors"
	"fmt"
)

var (
	// ErrHelperNotFound is returned when a template asks for a helper key that
	// was never registered on the rendering Renderer.
	ErrHelperNotFound = errors.New("view: helper not found")
	// ErrTemplateNotFound is returned by evaluators that cannot resolve a path.
	ErrTemplateNotFound = errors.New("view: template not found")
	// ErrReservedKey is returned by Wrap when the caller's data already uses
	// WrappedContentKey.
	ErrReservedKey = errors.New("view: reserved data key")
	// ErrNoEvaluator is returned by Render on a renderer built without one.
	ErrNoEvaluator = errors.New("view: evaluator is required")

	errNoScope = errors.New("view: no open capture scope")
)

func helperNotFound(key string) error {
	return fmt.Errorf("%w: %q", ErrHelperNotFound, key)
}

// TemplateNotFound builds an error that matches ErrTemplateNotFound.
func TemplateNotFound(path string) error {
	return fmt.Errorf("%w: %q", ErrTemplateNotFound, path)
}
