package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/crosscontext/crosscontext-backend/internal/infrastructure/config"
	"github.com/crosscontext/crosscontext-backend/internal/metrics"
)

// Server is the HTTP front of the mediation service
type Server struct {
	logger     *zap.Logger
	httpServer *http.Server
	shutdown   time.Duration
}

// NewServer assembles the router, middleware chain, and http.Server
func NewServer(cfg *config.Config, logger *zap.Logger, handlers *Handlers, m *metrics.Metrics) *Server {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit.RequestsPerSecond), cfg.Server.RateLimit.BurstSize)
	handler := Chain(mux,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		RateLimitMiddleware(limiter),
	)

	return &Server{
		logger: logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		shutdown: cfg.Server.ShutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. In-flight
// consent waits are unblocked by their own timeouts, not by the server.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", zap.Duration("timeout", s.shutdown))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
