package atlas4d

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atlas4d/gateway/internal/db/lifecycle"
	"github.com/atlas4d/gateway/internal/db/postgres"
	dbRedis "github.com/atlas4d/gateway/internal/db/redis"
	"github.com/atlas4d/gateway/internal/domain"
	anomalyrepo "github.com/atlas4d/gateway/internal/repository/anomaly"
	observationrepo "github.com/atlas4d/gateway/internal/repository/observation"
	statsrepo "github.com/atlas4d/gateway/internal/repository/stats"
	anomalyuc "github.com/atlas4d/gateway/internal/usecase/anomaly"
	healthuc "github.com/atlas4d/gateway/internal/usecase/health"
	observationuc "github.com/atlas4d/gateway/internal/usecase/observation"
	statsuc "github.com/atlas4d/gateway/internal/usecase/stats"
	"github.com/atlas4d/gateway/internal/version"
)

const defaultConnectTimeout = 5 * time.Second

// storeManager is the slice of lifecycle.Manager the client needs after start.
type storeManager interface {
	Ping(ctx context.Context) error
	Stop()
}

// Client is the Atlas4D SDK entry point.
type Client struct {
	store     storeManager
	obsSvc    observationUseCase
	anomSvc   anomalyUseCase
	statsSvc  statsUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the store.
// Unlike the server, the SDK fails fast when the primary store stays unreachable.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dsn == "" {
		return nil, errors.New("atlas4d: postgres DSN required (use WithPostgres)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	mgr := newManager(cfg)
	report, err := mgr.Start(ctx)
	if err != nil {
		mgr.Stop()
		return nil, fmt.Errorf("atlas4d: start store: %w", err)
	}
	if report.Degraded() {
		mgr.Stop()
		return nil, fmt.Errorf("atlas4d: %w after %d attempts: %w",
			domain.ErrStoreUnavailable, report.PrimaryAttempts, report.PrimaryErr)
	}
	if report.CacheErr != nil && cfg.logger != nil {
		cfg.logger.Warn("cache unavailable", "error", report.CacheErr)
	}

	return wireClient(mgr, obs), nil
}

func newManager(cfg *clientConfig) *lifecycle.Manager {
	mgr := lifecycle.New(lifecycle.Config{
		ConnectAttempts: cfg.connectAttempts,
		RetryDelay:      cfg.retryDelay,
		QueryTimeout:    cfg.queryTimeout,
	}, lifecycle.PostgresOpener(postgres.Config{
		DSN:            cfg.dsn,
		MinConns:       cfg.minConns,
		MaxConns:       cfg.maxConns,
		ConnectTimeout: defaultConnectTimeout,
	}))
	if len(cfg.redisAddrs) > 0 {
		mgr = mgr.WithCache(lifecycle.RedisOpener(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		}))
	}
	return mgr
}

func wireClient(mgr *lifecycle.Manager, obs *observer) *Client {
	return &Client{
		store:     mgr,
		obsSvc:    observationuc.New(observationrepo.New(mgr)),
		anomSvc:   anomalyuc.New(anomalyrepo.New(mgr)),
		statsSvc:  statsuc.New(statsrepo.New(mgr)),
		healthSvc: healthuc.New(mgr, version.Version),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Stop()
	}
}

// Ping checks primary store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Observations returns the observation service.
func (c *Client) Observations() *ObservationService {
	return &ObservationService{svc: c.obsSvc, obs: c.obs}
}

// Anomalies returns the anomaly service.
func (c *Client) Anomalies() *AnomalyService {
	return &AnomalyService{svc: c.anomSvc, obs: c.obs}
}

// Stats returns the statistics service.
func (c *Client) Stats() *StatsService {
	return &StatsService{svc: c.statsSvc, obs: c.obs}
}
