package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fitcheck/fitcheck/internal/apperr"
)

// requestIDHeader carries the request id in both directions.
const requestIDHeader = "X-Request-Id"

// handlerFunc is an HTTP handler that reports failures instead of writing them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// wrap installs the error boundary around h. Errors and panics become the
// JSON envelope; once a response has started, the connection is aborted
// instead so a truncated stream is never mistaken for a complete one.
func (t *Transport) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "handler panicked", "panic", rec, "stack", string(debug.Stack()))
			t.fail(rw, r, fmt.Errorf("panic: %v", rec))
		}()

		if err := h(rw, r); err != nil {
			t.fail(rw, r, err)
		}
	}
}

// fail writes the envelope for err, or aborts a response already in flight.
func (t *Transport) fail(rw *responseWriter, r *http.Request, err error) {
	env := t.envelope(r, err)
	if rw.wroteHeader {
		slog.ErrorContext(r.Context(), "aborting streamed response", "kind", env.Kind, "request_id", env.RequestID, "error", err)
		panic(http.ErrAbortHandler)
	}
	writeJSON(rw, env.Status, env)
}

// envelope normalizes err, attaches the inbound request, logs and counts it.
func (t *Transport) envelope(r *http.Request, err error) apperr.Envelope {
	env := apperr.Normalize(err)
	env.RequestID = middleware.GetReqID(r.Context())
	env.Request = apperr.SnapshotRequest(r, "")

	if t.errors != nil {
		t.errors.Add(r.Context(), 1, metric.WithAttributes(attribute.String("kind", string(env.Kind))))
	}

	level := slog.LevelWarn
	if env.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request failed",
		"kind", env.Kind,
		"status", env.Status,
		"request_id", env.RequestID,
		"path", r.URL.Path,
		"error", err,
	)
	return env
}

// requestID assigns every request an id, reusing a well-formed inbound one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			slog.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// responseWriter records whether the response has started.
type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *responseWriter) Flush() {
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	w.wroteHeader = true
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("body", "invalid json: %v", err)
	}
	return nil
}
