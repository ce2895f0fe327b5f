// Package server exposes the presets over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teilomillet/gochain/chain"
	"github.com/teilomillet/gochain/utils"
)

// SessionHeader carries the caller's session id. A new id is issued when
// the header is absent.
const SessionHeader = "X-Session-ID"

const shutdownTimeout = 5 * time.Second

// Server routes HTTP requests to a chain.Runner and remembers each
// session's last result.
type Server struct {
	runner *chain.Runner
	store  ResultStore
	logger utils.Logger
	engine *gin.Engine
}

// Mode returns the gin mode matching level: debug only when debug logging
// is on.
func Mode(level utils.LogLevel) string {
	if level >= utils.LogLevelDebug {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// New builds the gin engine and registers the routes.
func New(runner *chain.Runner, store ResultStore, logger utils.Logger) *Server {
	if store == nil {
		store = NewMemoryStore()
	}

	engine := gin.New()
	s := &Server{runner: runner, store: store, logger: logger, engine: engine}

	engine.Use(gin.Recovery(), s.requestLogger(), sessionID())
	engine.GET("/healthz", s.health)

	v1 := engine.Group("/v1")
	v1.GET("/languages", s.languages)
	v1.POST("/learning-plan", s.learningPlan)
	v1.POST("/recipe", s.recipe)
	v1.GET("/sessions/:id/last", s.lastResult)

	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server started", "addr", listener.Addr().String())
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("Closing result store failed", "error", err)
	}
	return nil
}
