package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tutorbot/internal/metrics"
)

// Server runs the webhook HTTP listener.
type Server struct {
	addr   string
	logger *slog.Logger
	server *http.Server
}

type ServerConfig struct {
	Addr        string
	WebhookPath string // path prefix; the secret is appended as /{secret}
	Handler     *Handler
	Logger      *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		addr:   cfg.Addr,
		logger: cfg.Logger,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg.WebhookPath, cfg.Handler),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// NewRouter builds the HTTP surface: health at /, metrics, and the
// secret-guarded webhook endpoint.
func NewRouter(webhookPath string, h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", h.handleHealth)
	r.Get("/metrics", metrics.Collector.Handler())
	r.Post(webhookPath+"/{secret}", h.handleWebhook)

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("webhook server starting", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}
