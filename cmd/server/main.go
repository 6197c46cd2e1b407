// Command server runs the Gilded Rose inventory service: it seeds the
// in-memory stock, serves the HTTP and WebSocket API and, when a day
// interval is configured, ages the stock on a schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
	"github.com/vyrodovalexey/gildedrose/internal/config"
	"github.com/vyrodovalexey/gildedrose/internal/seed"
	"github.com/vyrodovalexey/gildedrose/internal/server"
	"github.com/vyrodovalexey/gildedrose/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to initialize logger", zap.Error(err))
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.String("auth_mode", cfg.AuthMode),
		zap.Bool("anonymous_reads", cfg.AuthAnonymousReads),
		zap.Bool("tls_enabled", cfg.TLSEnabled),
		zap.String("seed_file", cfg.SeedFile),
		zap.Duration("day_interval", cfg.DayInterval),
		zap.Int("max_advance_days", cfg.MaxAdvanceDays),
	)

	authenticator, err := createAuthenticator(cfg, logger)
	if err != nil {
		logger.Error("failed to create authenticator", zap.Error(err))
		return 1
	}

	itemStore := store.NewMemoryStore()
	if err := stockShelves(context.Background(), cfg, itemStore, logger); err != nil {
		logger.Error("failed to seed inventory", zap.Error(err))
		return 1
	}

	srv := server.New(cfg, logger, itemStore, authenticator)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
		return 1
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// stockShelves fills the store from the seed file, or from the built-in
// stock when no file is configured.
func stockShelves(ctx context.Context, cfg *config.Config, s store.Store, logger *zap.Logger) error {
	items, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}

	if err := seed.Populate(ctx, s, items); err != nil {
		return err
	}

	source := cfg.SeedFile
	if source == "" {
		source = "built-in"
	}
	logger.Info("inventory seeded", zap.String("source", source), zap.Int("items", len(items)))

	return nil
}

// initLogger builds a JSON zap logger. An unknown level falls back to info.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder

	zapConfig := zap.Config{
		Level:    zap.NewAtomicLevelAt(zapLevel),
		Encoding: "json",
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}

// createAuthenticator maps the configured auth mode onto an Authenticator.
// Mode none yields nil.
func createAuthenticator(cfg *config.Config, logger *zap.Logger) (auth.Authenticator, error) {
	method, err := auth.ParseMethod(cfg.AuthMode)
	if err != nil {
		return nil, err
	}

	logger.Info("authentication configured", zap.String("mode", string(method)))

	switch method {
	case auth.AuthMethodMTLS:
		return auth.NewMTLSAuthenticator(), nil
	case auth.AuthMethodBasic:
		return auth.NewBasicAuthenticator(cfg.BasicAuthUsers)
	case auth.AuthMethodAPIKey:
		return auth.NewAPIKeyAuthenticator(cfg.APIKeys)
	case auth.AuthMethodMulti:
		return createMultiAuthenticator(cfg, logger)
	default:
		return nil, nil
	}
}

// createMultiAuthenticator chains every method the config provides, client
// certificates first.
func createMultiAuthenticator(cfg *config.Config, logger *zap.Logger) (auth.Authenticator, error) {
	var authenticators []auth.Authenticator

	if cfg.TLSEnabled && cfg.ClientAuth() != "none" {
		authenticators = append(authenticators, auth.NewMTLSAuthenticator())
		logger.Info("multi-auth: mTLS enabled")
	}

	if cfg.BasicAuthUsers != "" {
		ba, err := auth.NewBasicAuthenticator(cfg.BasicAuthUsers)
		if err != nil {
			return nil, fmt.Errorf("creating basic authenticator: %w", err)
		}
		authenticators = append(authenticators, ba)
		logger.Info("multi-auth: basic auth enabled")
	}

	if cfg.APIKeys != "" {
		ak, err := auth.NewAPIKeyAuthenticator(cfg.APIKeys)
		if err != nil {
			return nil, fmt.Errorf("creating API key authenticator: %w", err)
		}
		authenticators = append(authenticators, ak)
		logger.Info("multi-auth: API key auth enabled")
	}

	if len(authenticators) == 0 {
		return nil, fmt.Errorf("multi auth mode requires at least one authenticator")
	}

	return auth.NewMultiAuthenticator(authenticators...), nil
}
