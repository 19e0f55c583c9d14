package view

import (
	"context"
	"fmt"
)

// Scope is the handle a template receives while it is being evaluated. It is
// only valid for the duration of that evaluation.
type Scope struct {
	ctx      context.Context
	renderer *Renderer
	stack    *CaptureStack
	path     string
	data     Data
	err      error
}

// Context returns the context of the Render call that started evaluation.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Path returns the resolved path of the template being evaluated.
func (s *Scope) Path() string {
	return s.path
}

// Data returns this evaluation's copy of the render context.
func (s *Scope) Data() Data {
	return s.data
}

// Value returns data[key], or nil when missing.
func (s *Scope) Value(key string) any {
	v, _ := s.data.Value(key)
	return v
}

// Depth reports the depth of the capture stack, including this evaluation's
// own scope.
func (s *Scope) Depth() int {
	return s.stack.Depth()
}

// Write appends p to the current capture scope.
func (s *Scope) Write(p []byte) (int, error) {
	return s.stack.Write(p)
}

// WriteString appends str to the current capture scope.
func (s *Scope) WriteString(str string) (int, error) {
	return s.stack.WriteString(str)
}

// Print writes the default formatting of values, like fmt.Print.
func (s *Scope) Print(values ...any) error {
	_, err := fmt.Fprint(s.stack, values...)
	return err
}

// Printf writes formatted output, like fmt.Printf.
func (s *Scope) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(s.stack, format, args...)
	return err
}

// Helper returns the helper registered under key on the rendering Renderer.
func (s *Scope) Helper(key string) (Helper, error) {
	helper, err := s.renderer.helpers.Get(key)
	if err != nil {
		return nil, s.Fail(err)
	}
	return helper, nil
}

// Partial renders path with a fresh Renderer, which has no helpers, and
// returns its output. The caller decides where to emit it.
func (s *Scope) Partial(path string, data Data) (string, error) {
	out, err := s.renderer.fresh().render(s.ctx, s.stack, path, data)
	if err != nil {
		return "", s.Fail(err)
	}
	return out, nil
}

// Wrap replaces everything captured so far by this evaluation with the output
// of the layout at path. The layout receives the captured text under
// WrappedContentKey. Output written after Wrap returns is appended after the
// layout's output.
func (s *Scope) Wrap(path string, data Data) error {
	if _, exists := data.Value(WrappedContentKey); exists {
		return s.Fail(fmt.Errorf("%w: %q", ErrReservedKey, WrappedContentKey))
	}

	captured := s.stack.Pop()
	s.stack.Push()

	data = data.Clone()
	data[WrappedContentKey] = captured

	out, err := s.renderer.fresh().render(s.ctx, s.stack, path, data)
	if err != nil {
		return s.Fail(err)
	}
	_, err = s.stack.WriteString(out)
	return err
}

// Err returns the first failure recorded during this evaluation. Evaluators
// backed by engines that flatten errors into text return it instead so callers
// see the original value.
func (s *Scope) Err() error {
	return s.err
}

// Fail records err as the evaluation's failure unless one is already recorded
// and returns err unchanged. Helper, Partial and Wrap record their own
// failures; evaluators call Fail for errors returned by helper methods.
func (s *Scope) Fail(err error) error {
	if err != nil && s.err == nil {
		s.err = err
	}
	return err
}
