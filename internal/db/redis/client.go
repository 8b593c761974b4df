// Package redis is the secondary cache store. Only liveness is consumed.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/rueidis"

	"github.com/atlas4d/gateway/internal/db"
)

// Compile-time check: Store implements db.Pinger.
var _ db.Pinger = (*Store)(nil)

const (
	clientName         = "atlas4d-gateway"
	defaultDialTimeout = 3 * time.Second
)

// errUnexpectedReply is returned when PING answers with something other than PONG.
var errUnexpectedReply = errors.New("unexpected ping reply")

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int

	// DialTimeout bounds the initial dial. Zero means 3s.
	DialTimeout time.Duration
}

// Store wraps a rueidis client used for liveness probes.
type Store struct {
	client rueidis.Client
}

// NewStore dials Redis once. rueidis connects during construction, so an
// unreachable server fails here rather than on the first probe.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      cfg.Addrs,
		Username:         cfg.Username,
		Password:         cfg.Password,
		SelectDB:         cfg.DB,
		ClientName:       clientName,
		Dialer:           net.Dialer{Timeout: dialTimeout},
		ConnWriteTimeout: dialTimeout,
		// Probes only: no server-assisted client cache.
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis %v: %w", cfg.Addrs, err)
	}

	return &Store{client: client}, nil
}

// Ping round-trips a PING and expects PONG.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	reply, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	if reply != "PONG" {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("%w: %q", errUnexpectedReply, reply)}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}
