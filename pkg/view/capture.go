package view

import (
	"bytes"
	"context"
)

// CaptureStack is the LIFO stack of output buffers for one logical render
// call tree. Each in-flight Render owns exactly one level.
//
// A CaptureStack is not safe for concurrent use; it belongs to a single call.
type CaptureStack struct {
	scopes []*bytes.Buffer
}

// NewCaptureStack returns an empty stack.
func NewCaptureStack() *CaptureStack {
	return &CaptureStack{}
}

// Depth reports how many scopes are open.
func (s *CaptureStack) Depth() int {
	if s == nil {
		return 0
	}
	return len(s.scopes)
}

// Push opens a new scope and returns the depth after the push.
func (s *CaptureStack) Push() int {
	s.scopes = append(s.scopes, &bytes.Buffer{})
	return len(s.scopes)
}

// Pop closes the innermost scope and returns whatever it captured. Popping an
// empty stack returns "".
func (s *CaptureStack) Pop() string {
	if len(s.scopes) == 0 {
		return ""
	}
	last := len(s.scopes) - 1
	out := s.scopes[last].String()
	s.scopes[last] = nil
	s.scopes = s.scopes[:last]
	return out
}

// Contents returns the text captured by the innermost scope so far.
func (s *CaptureStack) Contents() string {
	if len(s.scopes) == 0 {
		return ""
	}
	return s.scopes[len(s.scopes)-1].String()
}

// Unwind pops scopes until the stack is depth levels deep, discarding their
// contents.
func (s *CaptureStack) Unwind(depth int) {
	if depth < 0 {
		depth = 0
	}
	for len(s.scopes) > depth {
		s.Pop()
	}
}

// Write appends p to the innermost scope. Writing with no open scope is an
// error: output would otherwise leak past the render call.
func (s *CaptureStack) Write(p []byte) (int, error) {
	if len(s.scopes) == 0 {
		return 0, errNoScope
	}
	return s.scopes[len(s.scopes)-1].Write(p)
}

// WriteString is the string form of Write.
func (s *CaptureStack) WriteString(str string) (int, error) {
	if len(s.scopes) == 0 {
		return 0, errNoScope
	}
	return s.scopes[len(s.scopes)-1].WriteString(str)
}

type captureKey struct{}

// WithCaptureStack threads stack into ctx so a top-level Render nests inside
// it instead of starting a fresh stack.
func WithCaptureStack(ctx context.Context, stack *CaptureStack) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, captureKey{}, stack)
}

// CaptureStackFrom returns the stack threaded through ctx, if any.
func CaptureStackFrom(ctx context.Context) (*CaptureStack, bool) {
	if ctx == nil {
		return nil, false
	}
	stack, ok := ctx.Value(captureKey{}).(*CaptureStack)
	return stack, ok && stack != nil
}
