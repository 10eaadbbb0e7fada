// Package server exposes the bridge's HTTP surface: chat relay,
// application data operations, notifications, system info and health.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/chatbridge/internal/appdata"
	"github.com/lewisedginton/chatbridge/internal/chatapi"
	appconfig "github.com/lewisedginton/chatbridge/internal/config"
	"github.com/lewisedginton/chatbridge/internal/notify"
	"github.com/lewisedginton/chatbridge/pkg/health"
	"github.com/lewisedginton/chatbridge/pkg/httpmiddleware"
	"github.com/lewisedginton/chatbridge/pkg/logger"
	"github.com/lewisedginton/chatbridge/pkg/metrics"
)

// Server wires the chat client, data manager and notifier behind a
// Chi router and manages the HTTP listener lifecycle.
type Server struct {
	cfg      *appconfig.AppConfig
	log      logger.Logger
	chat     *chatapi.Client
	data     *appdata.Manager
	notifier notify.Notifier
	metrics  *metrics.Metrics
	checker  *health.Checker
	router   chi.Router
}

// New creates a Server with all routes and middleware configured.
func New(cfg *appconfig.AppConfig, log logger.Logger, chat *chatapi.Client, data *appdata.Manager, notifier notify.Notifier, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		chat:     chat,
		data:     data,
		notifier: notifier,
		metrics:  m,
	}

	s.checker = health.New(
		health.WithLogger(log),
		health.WithTimeout(chatapi.ProbeTimeout),
	)
	// Readiness tracks the default upstream when one is configured.
	// Without one the bridge is ready as soon as it is serving.
	if cfg.Chat.EndpointURL != "" {
		endpoint := chatapi.Endpoint{URL: cfg.Chat.EndpointURL, APIKey: cfg.Chat.APIKey}
		s.checker.AddReadinessCheck(health.NewCheckFunc("upstream_chat", func(ctx context.Context) error {
			ok, err := chat.TestEndpoint(ctx, endpoint)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("upstream returned a non-success status")
			}
			return nil
		}))
	}

	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	httpmiddleware.WithLogger(r, s.log)
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/chat/test", s.handleChatTest)
		r.Get("/appdata/dir", s.handleAppDataDir)
		r.Post("/appdata/export", s.handleExport)
		r.Post("/appdata/import", s.handleImport)
		r.Get("/system", s.handleSystemInfo)
		r.Post("/notify", s.handleNotify)
	})

	r.Get("/health/live", s.checker.LivenessHandler())
	r.Get("/health/ready", s.checker.ReadinessHandler())
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

// Router returns the configured HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Listen starts the HTTP server and blocks until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Listen(ctx context.Context) error {
	srv := &http.Server{
		Addr:           s.cfg.HTTP.Addr(),
		Handler:        s.router,
		ReadTimeout:    s.cfg.HTTP.ReadTimeout(),
		WriteTimeout:   s.cfg.HTTP.WriteTimeout(),
		IdleTimeout:    s.cfg.HTTP.IdleTimeout(),
		MaxHeaderBytes: s.cfg.HTTP.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.StringField("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}
