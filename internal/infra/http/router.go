package http

import (
	"net/http"
)

// Middleware wraps an http.Handler in the standard net/http style.
type Middleware func(http.Handler) http.Handler

// Router is the routing surface the application registers against. The
// API is upload-and-read only, so the interface carries just the verbs
// the route tree needs; the chi implementation stays an infra detail.
type Router interface {
	// GET and POST register a handler, optionally wrapped in
	// route-specific middleware (first middleware outermost).
	GET(path string, handler http.HandlerFunc, middlewares ...Middleware)
	POST(path string, handler http.HandlerFunc, middlewares ...Middleware)

	// Group mounts a sub-tree under prefix. Group middleware applies to
	// every route registered inside fn.
	Group(prefix string, fn func(Router), middlewares ...Middleware)

	// Use appends middleware applying to all subsequently registered
	// routes.
	Use(middlewares ...Middleware)

	// Handler returns the composed http.Handler for the http.Server.
	Handler() http.Handler

	// Walk visits every registered route.
	Walk(fn func(method, path string, handler http.Handler) error) error
}

// Chain wraps handler in middlewares, first middleware outermost.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
