package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"skillmatch/internal/observability"
)

const (
	shutdownTimeout              = 30 * time.Second
	observabilityShutdownTimeout = 5 * time.Second
)

// Start runs the HTTP server, and the Prometheus listener when enabled,
// until ctx is cancelled or a listener fails
func (s *Server) Start(ctx context.Context) error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	s.metrics = om.GetMetrics()
	s.Analyzer = s.buildAnalyzer(s.metrics)
	defer s.cleanupRateLimiter()

	httpServer := s.setupHTTPServer(om)
	g, gctx := errgroup.WithContext(ctx)

	if err := s.configureTLS(gctx, g, httpServer); err != nil {
		return err
	}

	s.displayServerInfo(httpServer)

	g.Go(func() error {
		return s.serve(httpServer)
	})

	metricsServer := om.PrometheusServer()
	if metricsServer != nil {
		g.Go(func() error {
			s.Logger.Info("Starting Prometheus metrics server", "address", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.Logger.Info("Starting graceful shutdown")
		return s.performGracefulShutdown(httpServer, metricsServer)
	})

	return g.Wait()
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)
	om, err := observability.NewObservabilityManager(obsConfig, s.AppConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// shutdownObservability flushes exporters
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates the HTTP server with instrumented routes
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	handler := om.HTTPMiddleware()(s.setupRoutes())

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// configureTLS attaches the TLS configuration for server and mutual modes
// and starts the certificate watcher when auto reload is enabled
func (s *Server) configureTLS(ctx context.Context, g *errgroup.Group, httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	store, err := NewCertStore(s.TLSConfig, s.metrics, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	tlsConfig, err := s.buildTLSConfig(store)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	s.certStore = store
	httpServer.TLSConfig = tlsConfig

	if !s.TLSConfig.AutoReload.Enabled {
		return nil
	}
	files := store.Files()
	if len(files) == 0 {
		s.Logger.Warn("TLS auto reload enabled but certificates come from inline content; nothing to watch")
		return nil
	}

	watcher := NewCertWatcher(files, s.TLSConfig.AutoReload.DebounceDelay, func() {
		_ = store.Reload(ctx)
	}, s.Logger)
	g.Go(func() error {
		// The server keeps its current certificates if watching fails
		if err := watcher.Watch(ctx); err != nil {
			s.Logger.LogError(err, "Certificate file watcher failed, auto reload disabled")
		}
		return nil
	})
	return nil
}

// serve blocks on the listener; a graceful shutdown is not an error
func (s *Server) serve(httpServer *http.Server) error {
	s.Logger.Info("Starting HTTP server",
		"address", httpServer.Addr,
		"tls_enabled", httpServer.TLSConfig != nil)

	var err error
	if httpServer.TLSConfig != nil {
		// Certificates come from TLSConfig.GetCertificate
		err = httpServer.ListenAndServeTLS("", "")
	} else {
		err = httpServer.ListenAndServe()
	}
	if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// performGracefulShutdown drains in-flight requests, forcing close after the timeout
func (s *Server) performGracefulShutdown(servers ...*http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for _, server := range servers {
		if server == nil {
			continue
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close", "address", server.Addr)
			errs = append(errs, server.Close())
		}
	}

	s.Logger.Info("Server shutdown completed")
	return stderrors.Join(errs...)
}

// cleanupRateLimiter stops the limiter's cleanup goroutine
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
