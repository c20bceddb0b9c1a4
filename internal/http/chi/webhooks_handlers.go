package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-inspector/captures"
	"github.com/marcelsud/webhook-inspector/generator"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/rs/zerolog"
)

// Recorder receives counts for captured requests and generation calls
type Recorder interface {
	RecordCapture(ctx context.Context, route, method string)
	RecordGeneration(ctx context.Context, err error)
}

// Options tunes the router; zero values fall back to defaults
type Options struct {
	Logger       zerolog.Logger
	PageSize     int
	MaxBodyBytes int64
	Timeout      time.Duration
	Recorder     Recorder     // optional
	Metrics      http.Handler // optional, served on /metrics
}

const defaultMaxBodyBytes = 1 << 20

// WebhookHandlers sets up the capture routes and the inspection API
func WebhookHandlers(ctx context.Context, webhookService webhook.UseCase, generatorService generator.UseCase, captureLoader *captures.Loader, opts Options) *chi.Mux {
	if opts.PageSize <= 0 {
		opts.PageSize = webhook.DefaultPageSize
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Timeout <= 0 {
		// generation may legitimately take most of a minute
		opts.Timeout = 90 * time.Second
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// Inspection API
	r.Route("/api", func(r chi.Router) {
		r.Get("/webhooks", listWebhooks(webhookService, opts.PageSize).ServeHTTP)
		r.Get("/webhooks/{id}", getWebhook(webhookService).ServeHTTP)
		r.Post("/generate", postGenerate(generatorService, opts.Recorder).ServeHTTP)
	})

	// Capture routes, any method
	for _, route := range captureLoader.List() {
		r.Handle(route.Path, captureWebhook(webhookService, route, opts.MaxBodyBytes, opts.Recorder))
	}

	return r
}

type noopRecorder struct{}

func (noopRecorder) RecordCapture(context.Context, string, string) {}

func (noopRecorder) RecordGeneration(context.Context, error) {}
