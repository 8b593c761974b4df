package db

import "errors"

// Sentinel errors for store operations.
var (
	ErrNotConnected = errors.New("db: not connected")
	ErrDegraded     = errors.New("db: store degraded after startup failure")
)

// Op names identify store operations in errors, logs and metrics.
const (
	OpListObservations   = "observations.list"
	OpNearbyObservations = "observations.nearby"
	OpGetObservation     = "observations.get"
	OpInsertObservation  = "observations.insert"
	OpListAnomalies      = "anomalies.list"
	OpSummary            = "stats.summary"
	OpCountObservations  = "stats.count_observations"
	OpCountAnomalies     = "stats.count_anomalies"
	OpSourceBreakdown    = "stats.source_breakdown"
	OpLastObservation    = "stats.last_observation"
	OpPing               = "ping"
	OpMigrate            = "migrate"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
