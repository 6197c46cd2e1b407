// Package config loads the inventory service configuration from the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultAuthMode        = "none"
	DefaultTLSClientAuth   = "none"
	DefaultMaxAdvanceDays  = 365
)

// Environment variable names.
const (
	EnvServerPort         = "APP_SERVER_PORT"
	EnvLogLevel           = "APP_LOG_LEVEL"
	EnvShutdownTimeout    = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled     = "APP_METRICS_ENABLED"
	EnvAuthMode           = "APP_AUTH_MODE"
	EnvAuthAnonymousReads = "APP_AUTH_ANONYMOUS_READS"
	EnvTLSEnabled         = "APP_TLS_ENABLED"
	EnvTLSCertPath        = "APP_TLS_CERT_PATH"
	EnvTLSKeyPath         = "APP_TLS_KEY_PATH"
	EnvTLSCAPath          = "APP_TLS_CA_PATH"
	EnvTLSClientAuth      = "APP_TLS_CLIENT_AUTH"
	EnvBasicAuthUsers     = "APP_BASIC_AUTH_USERS"
	EnvAPIKeys            = "APP_API_KEYS" //nolint:gosec // env var name, not a credential
	EnvCORSOrigins        = "APP_CORS_ORIGINS"
	EnvSeedFile           = "APP_SEED_FILE"
	EnvDayInterval        = "APP_DAY_INTERVAL"
	EnvMaxAdvanceDays     = "APP_MAX_ADVANCE_DAYS"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	CORSOrigins     []string

	// AuthMode is one of none, mtls, basic, apikey, multi.
	AuthMode string
	// AuthAnonymousReads lets GET and HEAD through without credentials.
	AuthAnonymousReads bool

	TLSEnabled    bool
	TLSCertPath   string
	TLSKeyPath    string
	TLSCAPath     string
	TLSClientAuth string

	// BasicAuthUsers has the form "user1:bcrypt_hash,user2:bcrypt_hash".
	BasicAuthUsers string
	// APIKeys has the form "key1:name1,key2:name2".
	APIKeys string

	// SeedFile is a YAML inventory; empty loads the built-in stock.
	SeedFile string
	// DayInterval is how long one shop day lasts on the wall clock.
	// Zero leaves days to the advance endpoint.
	DayInterval time.Duration
	// MaxAdvanceDays caps a single advance request.
	MaxAdvanceDays int
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidAuthMode        = errors.New("auth mode must be one of: none, mtls, basic, apikey, multi")
	ErrInvalidTLSClientAuth   = errors.New("TLS client auth must be one of: none, request, require")
	ErrInvalidTLSCertRequired = errors.New("TLS cert path and key path must be set when TLS is enabled")
	ErrInvalidTLSCARequired   = errors.New("TLS CA path must be set when TLS client auth is require")
	ErrInvalidMTLSConfig      = errors.New("mtls auth mode needs TLS enabled with client auth require")
	ErrInvalidBasicAuthConfig = errors.New("basic auth users must be set when auth mode is basic")
	ErrInvalidAPIKeyConfig    = errors.New("API keys must be set when auth mode is apikey")
	ErrInvalidMultiAuthConfig = errors.New("at least one auth config must be provided when auth mode is multi")
	ErrInvalidDayInterval     = errors.New("day interval must not be negative")
	ErrInvalidMaxAdvanceDays  = errors.New("max advance days must be at least 1")
)

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		CORSOrigins:     []string{"*"},
		AuthMode:        DefaultAuthMode,
		TLSClientAuth:   DefaultTLSClientAuth,
		MaxAdvanceDays:  DefaultMaxAdvanceDays,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromEnv() error {
	strs := map[string]*string{
		EnvLogLevel:       &c.LogLevel,
		EnvAuthMode:       &c.AuthMode,
		EnvTLSCertPath:    &c.TLSCertPath,
		EnvTLSKeyPath:     &c.TLSKeyPath,
		EnvTLSCAPath:      &c.TLSCAPath,
		EnvTLSClientAuth:  &c.TLSClientAuth,
		EnvBasicAuthUsers: &c.BasicAuthUsers,
		EnvAPIKeys:        &c.APIKeys,
		EnvSeedFile:       &c.SeedFile,
	}
	for name, dst := range strs {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}

	ints := map[string]*int{
		EnvServerPort:     &c.ServerPort,
		EnvMaxAdvanceDays: &c.MaxAdvanceDays,
	}
	for name, dst := range ints {
		if err := envInt(name, dst); err != nil {
			return err
		}
	}

	bools := map[string]*bool{
		EnvMetricsEnabled:     &c.MetricsEnabled,
		EnvAuthAnonymousReads: &c.AuthAnonymousReads,
		EnvTLSEnabled:         &c.TLSEnabled,
	}
	for name, dst := range bools {
		if err := envBool(name, dst); err != nil {
			return err
		}
	}

	durations := map[string]*time.Duration{
		EnvShutdownTimeout: &c.ShutdownTimeout,
		EnvDayInterval:     &c.DayInterval,
	}
	for name, dst := range durations {
		if err := envDuration(name, dst); err != nil {
			return err
		}
	}

	if val := os.Getenv(EnvCORSOrigins); val != "" {
		c.CORSOrigins = splitList(val)
	}

	return nil
}

func envInt(name string, dst *int) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*dst = n
	return nil
}

func envBool(name string, dst *bool) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*dst = b
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*dst = d
	return nil
}

func splitList(val string) []string {
	var out []string
	for part := range strings.SplitSeq(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateInventory(); err != nil {
		return err
	}

	return c.validateAuth()
}

func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

func (c *Config) validateInventory() error {
	if c.DayInterval < 0 {
		return ErrInvalidDayInterval
	}
	if c.MaxAdvanceDays < 1 {
		return ErrInvalidMaxAdvanceDays
	}
	return nil
}

func (c *Config) validateAuth() error {
	method, err := auth.ParseMethod(c.AuthMode)
	if err != nil {
		return ErrInvalidAuthMode
	}

	if err := c.validateTLS(); err != nil {
		return err
	}

	switch method {
	case auth.AuthMethodMTLS:
		if !c.TLSEnabled || c.ClientAuth() != "require" {
			return ErrInvalidMTLSConfig
		}
	case auth.AuthMethodBasic:
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	case auth.AuthMethodAPIKey:
		if c.APIKeys == "" {
			return ErrInvalidAPIKeyConfig
		}
	case auth.AuthMethodMulti:
		if c.BasicAuthUsers == "" && c.APIKeys == "" && !c.TLSEnabled {
			return ErrInvalidMultiAuthConfig
		}
	}

	return nil
}

func (c *Config) validateTLS() error {
	clientAuth := c.ClientAuth()

	switch clientAuth {
	case "none", "request", "require":
	default:
		return ErrInvalidTLSClientAuth
	}

	if c.TLSEnabled && (c.TLSCertPath == "" || c.TLSKeyPath == "") {
		return ErrInvalidTLSCertRequired
	}

	if clientAuth == "require" && c.TLSCAPath == "" {
		return ErrInvalidTLSCARequired
	}

	return nil
}

// ClientAuth returns the TLS client auth policy, defaulting to "none".
func (c *Config) ClientAuth() string {
	if c.TLSClientAuth == "" {
		return DefaultTLSClientAuth
	}
	return c.TLSClientAuth
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
