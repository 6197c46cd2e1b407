// Package server assembles the inventory HTTP server: routes, middleware,
// the day updater and the optional TLS listener.
package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
	"github.com/vyrodovalexey/gildedrose/internal/config"
	"github.com/vyrodovalexey/gildedrose/internal/handler"
	"github.com/vyrodovalexey/gildedrose/internal/middleware"
	"github.com/vyrodovalexey/gildedrose/internal/nightly"
	"github.com/vyrodovalexey/gildedrose/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	logger     *zap.Logger
	wsHandler  *handler.WebSocketHandler
	updater    *nightly.Updater

	authenticator auth.Authenticator
	// initErr holds a TLS setup failure; Start reports it.
	initErr error
}

// New creates a Server over itemStore. A nil authenticator leaves the API
// open.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	itemStore store.Store,
	authenticator auth.Authenticator,
) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		config:        cfg,
		logger:        logger,
		authenticator: authenticator,
	}

	s.wsHandler = handler.NewWebSocketHandler(logger)
	s.updater = nightly.NewUpdater(itemStore, s.wsHandler, logger)

	s.setupMiddleware()
	s.setupRoutes(itemStore)
	s.setupHTTPServer()

	return s
}

// setupMiddleware installs the chain; the first Use is the outermost.
func (s *Server) setupMiddleware() {
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))

	if s.config.MetricsEnabled {
		s.router.Use(mux.MiddlewareFunc(middleware.Metrics()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.CORS(
		s.config.CORSOrigins, allowedMethods, middleware.DefaultCORSHeaders(),
	)))

	if s.authenticator != nil {
		s.router.Use(mux.MiddlewareFunc(middleware.Auth(
			s.authenticator, s.logger, s.config.AuthAnonymousReads,
		)))
	}
}

func (s *Server) setupRoutes(itemStore store.Store) {
	restHandler := handler.NewRESTHandler(itemStore, s.updater, s.config.MaxAdvanceDays, s.logger)
	restHandler.RegisterRoutes(s.router)

	s.wsHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// Preflight requests need a matching route, otherwise mux answers 405
	// before the CORS middleware runs.
	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	if s.config.TLSEnabled {
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			s.initErr = err
			return
		}
		s.httpServer.TLSConfig = tlsConfig
	}
}

// Start runs the day scheduler, when configured, and serves until Shutdown.
func (s *Server) Start() error {
	if s.initErr != nil {
		return fmt.Errorf("server initialization: %w", s.initErr)
	}

	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Bool("tls_enabled", s.config.TLSEnabled),
		zap.Duration("day_interval", s.config.DayInterval),
	)

	s.updater.Start(s.config.DayInterval)

	var err error
	if s.httpServer.TLSConfig != nil {
		// Certificates already sit in TLSConfig.
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		err = s.httpServer.ListenAndServe()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.updater.Stop()
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown stops the scheduler, closes live feeds and drains HTTP.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.updater.Stop()
	s.wsHandler.CloseAllConnections()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Updater returns the day updater driving the inventory.
func (s *Server) Updater() *nightly.Updater {
	return s.updater
}

// buildTLSConfig loads the server key pair, maps the client auth policy
// and loads the client CA pool when one is configured. Presented client
// certificates are always verified against that pool.
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(s.config.TLSCertPath, s.config.TLSKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading TLS key pair: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	switch s.config.ClientAuth() {
	case "request":
		tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	case "require":
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	default:
		tlsConfig.ClientAuth = tls.NoClientCert
	}

	if s.config.TLSCAPath == "" {
		return tlsConfig, nil
	}

	caPEM, err := os.ReadFile(s.config.TLSCAPath)
	if err != nil {
		return nil, fmt.Errorf("reading TLS CA cert: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("parsing TLS CA cert %s: no PEM certificates", s.config.TLSCAPath)
	}
	tlsConfig.ClientCAs = pool

	return tlsConfig, nil
}
