package router

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// --- ANSI color codes for request logging ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router is a minimal method-aware router with wildcard segments ("*"),
// enough for the /api/v1/batches/* route family without a framework.
type Router struct {
	routes map[string]HandlerFunc // key = METHOD:PATH
	paths  []string               // registration order, wildcard routes last
}

func New() *Router {
	return &Router{routes: make(map[string]HandlerFunc)}
}

func (r *Router) handle(method, path string, h HandlerFunc) {
	key := method + ":" + path
	if _, dup := r.routes[key]; dup {
		log.Fatalf("route registered twice: %s", key)
	}
	r.routes[key] = h
	r.paths = append(r.paths, path)
}

func (r *Router) GET(path string, h HandlerFunc)  { r.handle(http.MethodGet, path, h) }
func (r *Router) POST(path string, h HandlerFunc) { r.handle(http.MethodPost, path, h) }

// ServeHTTP dispatches exact matches first, then wildcard routes in
// registration order, so more specific routes must be registered first.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	h, ok := r.routes[req.Method+":"+req.URL.Path]
	if !ok {
		for _, path := range r.paths {
			if strings.Contains(path, "*") && matchWildcard(req.URL.Path, path) {
				if wh, whOK := r.routes[req.Method+":"+path]; whOK {
					h, ok = wh, true
					break
				}
			}
		}
	}

	if ok {
		h(lrw, req)
	} else {
		http.NotFound(lrw, req)
	}
	logRequest(req.Method, req.URL.Path, lrw.statusCode, time.Since(start))
}

// matchWildcard matches a path against a pattern where each "*" segment
// matches exactly one non-empty path segment.
func matchWildcard(path, pattern string) bool {
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(pathParts) != len(patternParts) {
		return false
	}
	for i, pp := range patternParts {
		if pp == "*" {
			if pathParts[i] == "" {
				return false
			}
			continue
		}
		if pp != pathParts[i] {
			return false
		}
	}
	return true
}

// Start runs the HTTP server on addr.
func (r *Router) Start(addr string) error {
	log.Printf("%s🚀 listening on %s%s", colorCyan, addr, colorReset)
	return http.ListenAndServe(addr, r)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func logRequest(method, path string, status int, took time.Duration) {
	color := colorGreen
	switch {
	case status >= 500:
		color = colorRed
	case status >= 400:
		color = colorYellow
	}
	log.Printf("%s%s %s -> %d%s (%v)", color, method, path, status, colorReset, took)
}
