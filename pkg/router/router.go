// Package router is a small HTTP router with method routing, wildcard
// path segments and colored request logging.
package router

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type route struct {
	method  string
	pattern string
	handler HandlerFunc

	// literals is the number of non-wildcard segments. Routes with more
	// literals are matched first, so /a/*/detail wins over /a/*.
	literals int
}

type Router struct {
	mux       *http.ServeMux
	exact     map[string]HandlerFunc // key = METHOD:PATH
	paths     map[string]bool
	wildcards []route
	srv       *http.Server
}

func New() *Router {
	r := &Router{
		mux:   http.NewServeMux(),
		exact: make(map[string]HandlerFunc),
		paths: make(map[string]bool),
	}
	r.mux.HandleFunc("/", r.dispatch)
	return r
}

// ServeHTTP dispatches the request and logs one colored line per request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	r.mux.ServeHTTP(lrw, req)

	duration := time.Since(start)
	log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
		colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
		methodColor(req.Method), req.Method, colorReset,
		req.URL.Path,
		statusColor(lrw.statusCode), lrw.statusCode, colorReset,
		colorBlue, duration, colorReset,
	)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	if h, ok := r.exact[req.Method+":"+req.URL.Path]; ok {
		h(w, req)
		return
	}
	for _, rt := range r.wildcards {
		if rt.method == req.Method && matchPattern(req.URL.Path, rt.pattern) {
			rt.handler(w, req)
			return
		}
	}
	if r.pathKnown(req.URL.Path) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

// pathKnown reports whether any route, regardless of method, covers the
// path. Distinguishes 405 from 404.
func (r *Router) pathKnown(path string) bool {
	if r.paths[path] {
		return true
	}
	for _, rt := range r.wildcards {
		if matchPattern(path, rt.pattern) {
			return true
		}
	}
	return false
}

// matchPattern matches a request path against a route pattern. A "*"
// segment matches exactly one path segment, except in trailing position
// where it matches one or more remaining segments.
func matchPattern(requestPath, pattern string) bool {
	reqSegs := strings.Split(strings.Trim(requestPath, "/"), "/")
	patSegs := strings.Split(strings.Trim(pattern, "/"), "/")

	if patSegs[len(patSegs)-1] == "*" {
		if len(reqSegs) < len(patSegs) {
			return false
		}
		reqSegs = reqSegs[:len(patSegs)-1]
		patSegs = patSegs[:len(patSegs)-1]
	} else if len(reqSegs) != len(patSegs) {
		return false
	}

	for i, seg := range patSegs {
		if seg != "*" && reqSegs[i] != seg {
			return false
		}
	}
	return true
}

// --- Register paths ---
func (r *Router) register(method, pattern string, handler HandlerFunc) {
	if strings.Contains(pattern, "*") {
		r.wildcards = append(r.wildcards, route{
			method:   method,
			pattern:  pattern,
			handler:  handler,
			literals: literalSegments(pattern),
		})
		// Most specific first; registration order breaks ties.
		sort.SliceStable(r.wildcards, func(i, j int) bool {
			return r.wildcards[i].literals > r.wildcards[j].literals
		})
		return
	}
	r.exact[method+":"+pattern] = handler
	r.paths[pattern] = true
}

func literalSegments(pattern string) int {
	n := 0
	for _, seg := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if seg != "*" {
			n++
		}
	}
	return n
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Mount attaches a plain http.Handler under a ServeMux pattern, for
// handlers that do their own routing such as promhttp or the swagger UI.
// Mounted handlers get the same request logging.
func (r *Router) Mount(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// Routes lists the registered routes as "METHOD PATTERN", sorted.
func (r *Router) Routes() []string {
	routes := make([]string, 0, len(r.exact)+len(r.wildcards))
	for key := range r.exact {
		method, path, _ := strings.Cut(key, ":")
		routes = append(routes, method+" "+path)
	}
	for _, rt := range r.wildcards {
		routes = append(routes, rt.method+" "+rt.pattern)
	}
	sort.Strings(routes)
	return routes
}

// --- Start server ---

// Start serves until the listener fails or Shutdown is called. A shutdown
// initiated by Shutdown returns nil.
func (r *Router) Start(addr string) error {
	r.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("🚀 Server started on %shttp://localhost%s%s", colorGreen, addr, colorReset)
	err := r.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (r *Router) Shutdown(ctx context.Context) error {
	if r.srv == nil {
		return nil
	}
	return r.srv.Shutdown(ctx)
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// --- Color helpers ---
func statusColor(code int) string {
	switch {
	case code < 300:
		return colorGreen
	case code < 400:
		return colorCyan
	case code < 500:
		return colorYellow
	}
	return colorRed
}

var methodColors = map[string]string{
	http.MethodGet:    colorGreen,
	http.MethodPost:   colorBlue,
	http.MethodPut:    colorYellow,
	http.MethodPatch:  colorYellow,
	http.MethodDelete: colorRed,
}

func methodColor(method string) string {
	if c, ok := methodColors[method]; ok {
		return c
	}
	return colorCyan
}
