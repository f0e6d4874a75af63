// Package http implements the HTTP/WebSocket transport for fitcheck.
//
// This transport exposes the REST API for coaching advice and prompts, the
// chunked audio streaming endpoints, a WebSocket variant of the stream, and
// the Swagger UI. Every handler returns an error; the boundary in
// boundary.go turns it into the JSON error envelope.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/fitcheck/fitcheck/internal/coach"
)

// Options configures the HTTP transport.
type Options struct {
	Port           int
	MaxUploadBytes int64
	Version        string

	Coach *coach.Service

	// Prompt serves the plain prompt routes; TextPrompt serves the text-only
	// variant and falls back to Prompt when nil.
	Prompt     coach.Completer
	TextPrompt coach.Completer
}

// Transport serves the HTTP API.
type Transport struct {
	opts     Options
	server   *http.Server
	upgrader websocket.Upgrader
	errors   metric.Int64Counter
}

// New creates a new HTTP transport.
func New(opts Options) *Transport {
	if opts.TextPrompt == nil {
		opts.TextPrompt = opts.Prompt
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	counter, err := otel.Meter("fitcheck/http").Int64Counter("fitcheck.http.errors",
		metric.WithDescription("Normalized request failures by kind"))
	if err != nil {
		slog.Warn("creating error counter", "error", err)
	}
	return &Transport{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 << 10,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		errors: counter,
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the instrumented router.
func (t *Transport) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger)

	r.Get("/", t.wrap(t.handleIndex))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/coach/advice", t.wrap(t.handleAdvice))

		r.Route("/speech", func(r chi.Router) {
			r.Get("/ssml", t.wrap(t.handleSSML))
			r.Get("/simple", t.wrap(t.handleSimple))
			r.Get("/ws", t.wrap(t.handleWebSocket))
			r.Get("/voices", t.wrap(t.handleVoices))
		})

		r.Route("/prompt", func(r chi.Router) {
			r.Post("/", t.wrap(t.handlePrompt))
			r.Post("/3.5", t.wrap(t.handleTextPrompt))
			r.Post("/file/", t.wrap(t.handleFilePrompt))
		})
	})

	// Swagger UI serves the generated OpenAPI docs.
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return otelhttp.NewHandler(r, "fitcheck.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Listen starts the HTTP server. It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.opts.Port),
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.opts.Port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		_ = t.Close()
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

type indexResponse struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
	Version string    `json:"version"`
}

// handleIndex reports the service identity.
//
// @Summary  Service index
// @Tags     meta
// @Produce  json
// @Success  200  {object}  indexResponse
// @Router   / [get]
func (t *Transport) handleIndex(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, indexResponse{
		Message: "fitcheck coaching voice service",
		Time:    time.Now().UTC(),
		Version: t.opts.Version,
	})
	return nil
}
