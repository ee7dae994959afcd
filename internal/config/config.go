package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultMaxContentLength is the request body ceiling (10 MiB)
	DefaultMaxContentLength int64 = 10 * 1024 * 1024
	// DefaultRequestTimeout bounds a single bridged invocation
	DefaultRequestTimeout = 30 * time.Second

	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)

var (
	// ErrUpstreamMissing is returned when LANGGRAPH_SERVICE_URL is not set
	ErrUpstreamMissing = errors.New("upstream service URL is not configured")
	// ErrUpstreamInvalid is returned when LANGGRAPH_SERVICE_URL is not a valid URL
	ErrUpstreamInvalid = errors.New("upstream service URL is invalid")
)

// Config holds all configuration for the function app. It is built once per
// process and treated as read-only afterwards.
type Config struct {
	Environment string
	Port        string
	FunctionKey string
	Service     ServiceConfig
	Runtime     RuntimeConfig
	Logging     LoggingConfig

	upstream    *url.URL
	upstreamErr error
}

// ServiceConfig identifies the deployed service in health payloads
type ServiceConfig struct {
	Name    string
	Version string
}

// RuntimeConfig holds the settings of the runtime bridge endpoint
type RuntimeConfig struct {
	AllowedOrigins   string
	MaxContentLength int64
	RequestTimeout   time.Duration
	ServiceURL       string `validate:"required,url"`
	RateLimitRPS     float64
	RateLimitBurst   int
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
	File   string
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("NODE_ENV", EnvironmentDevelopment)
	v.SetDefault("PORT", "7071")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_CONTENT_LENGTH", DefaultMaxContentLength)
	v.SetDefault("REQUEST_TIMEOUT_MS", DefaultRequestTimeout.Milliseconds())
	v.SetDefault("SERVICE_NAME", "copilotkit-runtime")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 0)

	logFormat := "text"
	if IsServerlessMode() {
		logFormat = "json"
	}
	v.SetDefault("LOG_FORMAT", logFormat)

	cfg := &Config{
		Environment: strings.TrimSpace(v.GetString("NODE_ENV")),
		Port:        v.GetString("PORT"),
		FunctionKey: v.GetString("FUNCTION_KEY"),
		Service: ServiceConfig{
			Name:    v.GetString("SERVICE_NAME"),
			Version: v.GetString("SERVICE_VERSION"),
		},
		Runtime: RuntimeConfig{
			AllowedOrigins:   v.GetString("ALLOWED_ORIGINS"),
			MaxContentLength: v.GetInt64("MAX_CONTENT_LENGTH"),
			RequestTimeout:   time.Duration(v.GetInt64("REQUEST_TIMEOUT_MS")) * time.Millisecond,
			ServiceURL:       strings.TrimSpace(v.GetString("LANGGRAPH_SERVICE_URL")),
			RateLimitRPS:     v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst:   v.GetInt("RATE_LIMIT_BURST"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			File:   v.GetString("LOG_FILE"),
		},
	}

	cfg.applyDefaults()
	cfg.ResolveUpstream()

	return cfg, nil
}

// applyDefaults replaces non-positive or empty values that viper could not parse
func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if c.Runtime.AllowedOrigins == "" {
		c.Runtime.AllowedOrigins = "*"
	}
	if c.Runtime.MaxContentLength <= 0 {
		c.Runtime.MaxContentLength = DefaultMaxContentLength
	}
	if c.Runtime.RequestTimeout <= 0 {
		c.Runtime.RequestTimeout = DefaultRequestTimeout
	}
}

// ResolveUpstream validates Runtime.ServiceURL and caches the parsed result.
// Load calls it; callers that build a Config by hand must call it too.
func (c *Config) ResolveUpstream() {
	c.upstream, c.upstreamErr = parseServiceURL(c.Runtime)
}

// UpstreamURL returns the parsed upstream service URL, or the reason it is
// unusable. It never mutates the Config; a Config that was not resolved reports
// ErrUpstreamMissing.
func (c *Config) UpstreamURL() (*url.URL, error) {
	if c.upstream == nil && c.upstreamErr == nil {
		return nil, ErrUpstreamMissing
	}
	return c.upstream, c.upstreamErr
}

// IsProduction reports whether verbose error and health detail must be suppressed
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvironmentProduction)
}

func parseServiceURL(rc RuntimeConfig) (*url.URL, error) {
	if strings.TrimSpace(rc.ServiceURL) == "" {
		return nil, ErrUpstreamMissing
	}

	if err := validator.New().Struct(rc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "ServiceURL" {
					return nil, fmt.Errorf("%w: failed %q check", ErrUpstreamInvalid, fe.Tag())
				}
			}
			return nil, fmt.Errorf("runtime configuration: %w", err)
		}
		return nil, err
	}

	u, err := url.Parse(rc.ServiceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamInvalid, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrUpstreamInvalid, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrUpstreamInvalid)
	}

	return u, nil
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt gets an environment variable as integer with a fallback value
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
