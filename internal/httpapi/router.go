// Package httpapi exposes the command API over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/observability"
	"github.com/spherical/pdf2excel/internal/resolve"
)

// Commands is the command surface the handlers call.
// *service.Service satisfies it.
type Commands interface {
	Probe() string
	ParsePDF(ctx context.Context, path string) (*domain.ParseResult, error)
	ExportExcel(ctx context.Context, path string, items []domain.OrderItem, info domain.PdfInfo) error
	CheckEnvironment() bool
	Environment() resolve.Environment
	History(ctx context.Context, limit int) ([]domain.Conversion, error)
}

// RouterConfig holds router settings.
type RouterConfig struct {
	RequestTimeout time.Duration
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, commands Commands, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"pdf2excel"}`))
	})

	h := NewHandler(logger, commands)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/probe", h.Probe)
		r.Post("/parse", h.Parse)
		r.Post("/export", h.Export)
		r.Get("/environment", h.Environment)
		r.Get("/history", h.History)
	})

	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *observability.Logger) func(http.Handler) http.Handler {
	log := logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("Handled request")
		})
	}
}
