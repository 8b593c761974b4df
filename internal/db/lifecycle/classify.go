package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sony/gobreaker/v2"

	"github.com/atlas4d/gateway/internal/db"
	"github.com/atlas4d/gateway/internal/domain"
)

type errKind int

const (
	kindNone errKind = iota
	kindUnavailable
	kindQuery
	kindDomain
)

func (k errKind) String() string {
	switch k {
	case kindUnavailable:
		return "unavailable"
	case kindQuery:
		return "query"
	case kindDomain:
		return "domain"
	default:
		return ""
	}
}

// acquireError marks a failure to obtain a pooled connection.
type acquireError struct {
	err error
}

func (e *acquireError) Error() string { return "acquire connection: " + e.err.Error() }
func (e *acquireError) Unwrap() error { return e.err }

// SQLSTATE classes that mean the server or link is gone rather than the statement being wrong.
var unavailableSQLStates = map[string]bool{
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
}

// classify decides whether err means the store is unreachable or the statement failed.
func classify(err error) errKind {
	if err == nil {
		return kindNone
	}

	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidFilter) ||
		errors.Is(err, domain.ErrInvalidObservation) {
		return kindDomain
	}

	var acqErr *acquireError
	switch {
	case errors.As(err, &acqErr),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, db.ErrDegraded),
		errors.Is(err, db.ErrNotConnected),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		pgconn.Timeout(err):
		return kindUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return kindUnavailable
		}
		if unavailableSQLStates[pgErr.Code] {
			return kindUnavailable
		}
		return kindQuery
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		pgconn.SafeToRetry(err) {
		return kindUnavailable
	}

	return kindQuery
}

// wrap attaches the op name and the taxonomy sentinel for kind.
func wrap(op string, kind errKind, err error) error {
	switch kind {
	case kindUnavailable:
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)}
	case kindQuery:
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrQueryExecutionFailed, err)}
	default:
		return err
	}
}
