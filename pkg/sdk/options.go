package atlas4d

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn      string
	minConns int32
	maxConns int32

	connectAttempts int
	retryDelay      time.Duration
	queryTimeout    time.Duration

	redisAddrs    []string
	redisPassword string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres sets the PostGIS connection string. Required.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithPool sets the connection pool bounds. Defaults: 2 and 10.
func WithPool(minConns, maxConns int32) Option {
	return optionFunc(func(c *clientConfig) {
		c.minConns = minConns
		c.maxConns = maxConns
	})
}

// WithRetry sets the startup connection policy. Defaults: 5 attempts, 2s apart.
func WithRetry(attempts int, delay time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.connectAttempts = attempts
		c.retryDelay = delay
	})
}

// WithQueryTimeout bounds each store call whose context has no deadline. Default: 5s.
func WithQueryTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = d
	})
}

// WithRedis enables the optional cache connection, reported by Health.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
