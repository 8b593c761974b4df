package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atlas4d/gateway/internal/domain/geo"
)

// Config holds the gateway configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Query     QueryConfig     `yaml:"query"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds primary store settings.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MinConns        int32  `yaml:"min_conns"`
	MaxConns        int32  `yaml:"max_conns"`
	ConnectAttempts int    `yaml:"connect_attempts"`
	RetryDelayMs    int    `yaml:"retry_delay_ms"`
	ConnectTimeout  int    `yaml:"connect_timeout_sec"`
	QueryTimeoutSec int    `yaml:"query_timeout_sec"`
	Migrate         bool   `yaml:"migrate"`
}

// RetryDelay returns the fixed delay between startup attempts.
func (d DatabaseConfig) RetryDelay() time.Duration {
	return time.Duration(d.RetryDelayMs) * time.Millisecond
}

// QueryTimeout returns the per-query deadline.
func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutSec) * time.Second
}

// CacheConfig holds cache settings. The cache is optional and only probed for liveness.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// QueryConfig holds filter defaults and ceilings.
type QueryConfig struct {
	DefaultRadiusKm    float64 `yaml:"default_radius_km"`
	DefaultHours       int     `yaml:"default_hours"`
	DefaultLimit       int     `yaml:"default_limit"`
	DefaultAnomalies   int     `yaml:"default_anomaly_limit"`
	DefaultGeoJSON     int     `yaml:"default_geojson_limit"`
	DefaultMinSeverity int     `yaml:"default_min_severity"`
	MaxLimit           int     `yaml:"max_limit"`
	MaxHours           int     `yaml:"max_hours"`
	MaxRadiusKm        float64 `yaml:"max_radius_km"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAgeSec        int      `yaml:"max_age_sec"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled   bool `yaml:"enabled"`
	Requests  int  `yaml:"requests"`
	WindowSec int  `yaml:"window_sec"`
}

// Window returns the rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSec) * time.Second
}

// BreakerConfig holds the store circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold uint32 `yaml:"failure_threshold"`
	OpenTimeoutSec   int    `yaml:"open_timeout_sec"`
}

// OpenTimeout returns how long the breaker stays open.
func (b BreakerConfig) OpenTimeout() time.Duration {
	return time.Duration(b.OpenTimeoutSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.MinConns <= 0 {
		c.Database.MinConns = 2
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.ConnectAttempts <= 0 {
		c.Database.ConnectAttempts = 5
	}
	if c.Database.RetryDelayMs <= 0 {
		c.Database.RetryDelayMs = 2000
	}
	if c.Database.ConnectTimeout <= 0 {
		c.Database.ConnectTimeout = 5
	}
	if c.Database.QueryTimeoutSec <= 0 {
		c.Database.QueryTimeoutSec = 5
	}

	q := &c.Query
	if q.DefaultRadiusKm <= 0 {
		q.DefaultRadiusKm = 10
	}
	if q.DefaultHours <= 0 {
		q.DefaultHours = 24
	}
	if q.DefaultLimit <= 0 {
		q.DefaultLimit = 100
	}
	if q.DefaultAnomalies <= 0 {
		q.DefaultAnomalies = 50
	}
	if q.DefaultGeoJSON <= 0 {
		q.DefaultGeoJSON = 500
	}
	if q.DefaultMinSeverity <= 0 {
		q.DefaultMinSeverity = 1
	}
	if q.MaxLimit <= 0 {
		q.MaxLimit = 1000
	}
	if q.MaxHours <= 0 {
		q.MaxHours = 8760
	}
	if q.MaxRadiusKm <= 0 {
		q.MaxRadiusKm = geo.MaxRadiusKm
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"*"}
	}
	if c.CORS.MaxAgeSec <= 0 {
		c.CORS.MaxAgeSec = 300
	}

	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 1
	}

	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.OpenTimeoutSec <= 0 {
		c.Breaker.OpenTimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds database.max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}

	q := c.Query
	if q.DefaultLimit > q.MaxLimit || q.DefaultAnomalies > q.MaxLimit || q.DefaultGeoJSON > q.MaxLimit {
		return fmt.Errorf("query default limits must not exceed query.max_limit (%d)", q.MaxLimit)
	}
	if q.DefaultHours > q.MaxHours {
		return fmt.Errorf("query.default_hours (%d) exceeds query.max_hours (%d)", q.DefaultHours, q.MaxHours)
	}
	if q.DefaultRadiusKm > q.MaxRadiusKm {
		return fmt.Errorf("query.default_radius_km exceeds query.max_radius_km")
	}
	if q.MaxRadiusKm > geo.MaxRadiusKm {
		return fmt.Errorf("query.max_radius_km must be at most %g, got %g", geo.MaxRadiusKm, q.MaxRadiusKm)
	}
	if q.DefaultMinSeverity > 5 {
		return fmt.Errorf("query.default_min_severity must be between 1 and 5, got %d", q.DefaultMinSeverity)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
