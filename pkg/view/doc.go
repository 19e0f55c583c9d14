// Package view implements the render pipeline: output capture scopes, the
// data and helper visibility contract handed to templates, and the partial and
// wrap composition protocol.
//
// Templates are evaluated through an Evaluator. The package ships FuncSet, an
// evaluator whose templates are plain Go functions; file based evaluators live
// under pkg/evaluators.
//
// A template sees three things through its Scope:
//
//	Data     the per call render context (also exposed as named variables by
//	         file based evaluators)
//	Helper   registered view helpers, looked up by key
//	Partial  renders another template with a fresh renderer and returns it
//	Wrap     hands everything captured so far to a layout template under the
//	         reserved key "wrapped_content"
//
// Partials and wrappers are rendered by a brand new Renderer with an empty
// helper registry. Helpers registered on the outer renderer are not visible
// inside them unless passed explicitly through the data.
package view
