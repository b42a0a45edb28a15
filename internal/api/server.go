package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mclemoreauction/neighbor-letters/internal/config"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	cfg    config.ServerConfig
	router *chi.Mux
	srv    *http.Server
}

// NewServer builds the server around a configured router.
func NewServer(cfg config.ServerConfig, router *chi.Mux) *Server {
	return &Server{cfg: cfg, router: router}
}

// Start listens until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.GetHost(), s.cfg.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api: server listening", "addr", addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("api: shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
