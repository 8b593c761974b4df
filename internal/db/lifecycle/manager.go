// Package lifecycle owns the primary store pool and the optional cache connection:
// bounded startup retry, degraded fast-fail, scoped acquire/release and liveness.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/atlas4d/gateway/internal/db"
	"github.com/atlas4d/gateway/internal/metrics"
)

// Pool is the subset of a connection pool the manager drives.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Close()
}

// Conn is a pooled connection that must be released exactly once.
type Conn interface {
	db.Querier
	Release()
}

// Cache is the secondary liveness store.
type Cache interface {
	Ping(ctx context.Context) error
	Close()
}

// PrimaryOpener establishes the primary pool; one call is one attempt.
type PrimaryOpener func(ctx context.Context) (Pool, error)

// CacheOpener establishes the cache connection; called at most once.
type CacheOpener func(ctx context.Context) (Cache, error)

// State is the manager lifecycle state.
type State int

const (
	// StateIdle means Start has not run.
	StateIdle State = iota
	// StateReady means the primary pool is established.
	StateReady
	// StateDegraded means startup exhausted its attempts; acquires fail fast.
	StateDegraded
	// StateStopped means Stop has released all resources.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds retry, timeout and breaker parameters.
type Config struct {
	ConnectAttempts int
	RetryDelay      time.Duration
	// QueryTimeout bounds acquire plus execution when the caller context has no deadline.
	QueryTimeout time.Duration

	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns the startup policy: 5 attempts, 2s apart, 5s per query.
func DefaultConfig() Config {
	return Config{
		ConnectAttempts: 5,
		RetryDelay:      2 * time.Second,
		QueryTimeout:    5 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = d.ConnectAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = d.QueryTimeout
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = d.BreakerFailures
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = d.BreakerTimeout
	}
	return c
}

// StartReport describes the outcome of Start.
type StartReport struct {
	PrimaryAttempts int
	PrimaryErr      error
	CacheEnabled    bool
	CacheErr        error
}

// Degraded reports whether the primary store could not be reached.
func (r StartReport) Degraded() bool { return r.PrimaryErr != nil }

// ErrAlreadyStarted is returned when Start runs more than once.
var ErrAlreadyStarted = errors.New("lifecycle: already started")

// Manager is the explicitly constructed owner of store connections.
type Manager struct {
	cfg         Config
	openPrimary PrimaryOpener
	openCache   CacheOpener
	clock       clockwork.Clock
	logger      *zap.Logger
	metrics     metrics.StoreRecorder
	breaker     *gobreaker.CircuitBreaker[struct{}]

	mu       sync.RWMutex
	state    State
	primary  Pool
	cache    Cache
	lastErr  error
	cacheErr error

	stopOnce sync.Once
}

// New creates a Manager. The cache is disabled until WithCache is called.
func New(cfg Config, openPrimary PrimaryOpener) *Manager {
	m := &Manager{
		cfg:         cfg.withDefaults(),
		openPrimary: openPrimary,
		clock:       clockwork.NewRealClock(),
		logger:      zap.NewNop(),
	}
	m.breaker = m.newBreaker()
	return m
}

// WithCache enables the best-effort cache connection.
func (m *Manager) WithCache(open CacheOpener) *Manager {
	m.openCache = open
	return m
}

// WithClock replaces the clock used for retry delays.
func (m *Manager) WithClock(c clockwork.Clock) *Manager {
	if c != nil {
		m.clock = c
	}
	return m
}

// WithLogger sets the logger.
func (m *Manager) WithLogger(l *zap.Logger) *Manager {
	if l != nil {
		m.logger = l
	}
	return m
}

// WithMetrics enables Prometheus store metrics.
func (m *Manager) WithMetrics(r metrics.StoreRecorder) *Manager {
	m.metrics = r
	return m
}

func (m *Manager) newBreaker() *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "primary-store",
		MaxRequests: 1,
		Timeout:     m.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= m.cfg.BreakerFailures
		},
		// Only connectivity failures count against the store.
		IsSuccessful: func(err error) bool {
			return err == nil || classify(err) != kindUnavailable
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.Warn("store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			m.metrics.SetBreakerState(int(to))
		},
	})
}

// Start establishes the primary pool with a fixed-delay retry policy, then makes a
// single attempt at the cache. Exhausted attempts leave the manager degraded; this
// is reported, not returned as an error.
func (m *Manager) Start(ctx context.Context) (StartReport, error) {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return StartReport{}, ErrAlreadyStarted
	}
	m.mu.Unlock()

	report := StartReport{CacheEnabled: m.openCache != nil}

	pool, attempts, err := m.connectPrimary(ctx)
	report.PrimaryAttempts = attempts
	report.PrimaryErr = err

	var cache Cache
	if m.openCache != nil {
		cache, report.CacheErr = m.connectCache(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateStopped {
		closeQuietly(pool, cache)
		return report, ErrAlreadyStarted
	}
	m.primary = pool
	m.cache = cache
	m.lastErr = report.PrimaryErr
	m.cacheErr = report.CacheErr
	if pool != nil {
		m.state = StateReady
	} else {
		m.state = StateDegraded
	}
	m.metrics.SetDegraded(pool == nil)

	return report, nil
}

func (m *Manager) connectPrimary(ctx context.Context) (Pool, int, error) {
	var lastErr error
	for attempt := 1; attempt <= m.cfg.ConnectAttempts; attempt++ {
		pool, err := m.openPrimary(ctx)
		m.metrics.ConnectAttempt("postgres", err == nil)
		if err == nil {
			m.logger.Info("connected to primary store", zap.Int("attempt", attempt))
			return pool, attempt, nil
		}
		lastErr = err
		m.logger.Warn("primary store connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", m.cfg.ConnectAttempts),
			zap.Error(err),
		)

		if attempt == m.cfg.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, attempt, fmt.Errorf("startup interrupted: %w (last error: %w)", ctx.Err(), lastErr)
		case <-m.clock.After(m.cfg.RetryDelay):
		}
	}

	m.logger.Error("primary store unreachable, entering degraded mode",
		zap.Int("attempts", m.cfg.ConnectAttempts),
		zap.Error(lastErr),
	)
	return nil, m.cfg.ConnectAttempts, lastErr
}

func (m *Manager) connectCache(ctx context.Context) (Cache, error) {
	cache, err := m.openCache(ctx)
	m.metrics.ConnectAttempt("redis", err == nil)
	if err != nil {
		m.logger.Warn("cache store unavailable, continuing without it", zap.Error(err))
		return nil, err
	}
	m.logger.Info("connected to cache store")
	return cache, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastError returns the last primary startup failure, nil after a successful start.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// CacheError returns the cache connection failure, if any.
func (m *Manager) CacheError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cacheErr
}

func (m *Manager) pool() (Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch m.state {
	case StateReady:
		return m.primary, nil
	case StateDegraded:
		return nil, fmt.Errorf("%w: %w", db.ErrDegraded, m.lastErr)
	default:
		return nil, db.ErrNotConnected
	}
}

// WithConn implements db.Executor. The connection is released when fn returns,
// whether it succeeded, failed or the context was cancelled.
func (m *Manager) WithConn(ctx context.Context, op string, fn func(ctx context.Context, q db.Querier) error) error {
	start := m.clock.Now()

	pool, err := m.pool()
	if err != nil {
		m.metrics.ObserveQuery(op, m.clock.Since(start), kindUnavailable.String())
		return wrap(op, kindUnavailable, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.QueryTimeout)
		defer cancel()
	}

	_, err = m.breaker.Execute(func() (struct{}, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return struct{}{}, &acquireError{err: err}
		}
		defer conn.Release()
		return struct{}{}, fn(ctx, conn)
	})

	kind := classify(err)
	m.metrics.ObserveQuery(op, m.clock.Since(start), kind.String())
	if err == nil {
		return nil
	}
	if kind == kindQuery {
		m.logger.Warn("store query failed", zap.String("op", op), zap.Error(err))
	}
	return wrap(op, kind, err)
}

// Acquire hands out a pooled connection; the caller must Release it.
// Prefer WithConn, which scopes the release.
func (m *Manager) Acquire(ctx context.Context) (Conn, error) {
	pool, err := m.pool()
	if err != nil {
		return nil, wrap("acquire", kindUnavailable, err)
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, wrap("acquire", kindUnavailable, err)
	}
	return conn, nil
}

// Ping probes the primary store without touching the breaker.
func (m *Manager) Ping(ctx context.Context) error {
	pool, err := m.pool()
	if err != nil {
		return wrap(db.OpPing, kindUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		return wrap(db.OpPing, kindUnavailable, err)
	}
	return nil
}

// Stop releases the pool and the cache. It is idempotent and safe after a
// partial or failed Start.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		closeQuietly(m.primary, m.cache)
		m.primary = nil
		m.cache = nil
		m.state = StateStopped
		m.logger.Info("store connections closed")
	})
}

func closeQuietly(p Pool, c Cache) {
	if p != nil {
		p.Close()
	}
	if c != nil {
		c.Close()
	}
}
