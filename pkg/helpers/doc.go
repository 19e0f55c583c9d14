// Package helpers ships the built-in view helpers: the root URI helper that
// derives the site's base URI from the current request, a markdown helper and
// a theme asset helper.
//
// Helpers with transient state (a pending scheme override, a markdown source)
// are synchronized, but that state is still shared by every caller. Register a
// fresh instance per request when templates run concurrently.
package helpers
