// Package pages serves rendered templates over net/http.
//
// The handler answers GET and HEAD requests, resolving the template from the
// "page" route variable or the request path. Each request renders through a
// clone of the configured renderer with a request-bound root URI helper
// registered under "root_uri".
package pages
