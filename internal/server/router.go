package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

// Handler is the application-style handler: it returns a payload to be
// JSON encoded or an error.
type Handler func(ctx context.Context, r *http.Request) (any, error)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in order, returning the final wrapped handler.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Error is an error with an HTTP status.
type Error struct {
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(err error) error {
	return &Error{Status: http.StatusBadRequest, Msg: err.Error(), Err: err}
}

type errorResponse struct {
	Message string `json:"message"`
}

// Router wraps httprouter with the JSON codec and a middleware stack.
type Router struct {
	hr  *httprouter.Router
	log zerolog.Logger
	mws []Middleware
}

// NewRouter builds a router with panic recovery and request logging.
func NewRouter(log zerolog.Logger) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}
	ro := &Router{hr: hr, log: log}
	ro.mws = []Middleware{ro.recoverer, ro.logging}
	return ro
}

// GET registers a GET endpoint.
func (r *Router) GET(path string, h Handler) {
	r.endpoint(http.MethodGet, path, h)
}

// POST registers a POST endpoint.
func (r *Router) POST(path string, h Handler) {
	r.endpoint(http.MethodPost, path, h)
}

func (r *Router) endpoint(method, path string, h Handler) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(re.Context(), re)
		if err != nil {
			r.writeError(w, err)
			return
		}
		writeJSON(w, resp, http.StatusOK)
	}), r.mws...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func (r *Router) writeError(w http.ResponseWriter, err error) {
	var herr *Error
	if errors.As(err, &herr) {
		writeJSON(w, errorResponse{Message: herr.Msg}, herr.Status)
		return
	}
	r.log.Error().Err(err).Msg("request failed")
	writeJSON(w, errorResponse{Message: "internal server error"}, http.StatusInternalServerError)
}

func (r *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				r.log.Error().
					Interface("panic", rvr).
					Bytes("stack", debug.Stack()).
					Str("path", req.URL.Path).
					Msg("panic on the server")
				writeJSON(w, errorResponse{Message: "internal server error"}, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		r.log.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("query", req.URL.RawQuery).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
