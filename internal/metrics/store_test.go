package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStoreRecorder_ZeroValueIsNoop(t *testing.T) {
	var r StoreRecorder
	before := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("noop.op", "query"))
	r.ObserveQuery("noop.op", time.Millisecond, "query")
	r.ConnectAttempt("postgres", false)
	r.SetDegraded(true)
	after := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("noop.op", "query"))
	if after != before {
		t.Errorf("zero recorder changed errors_total: %f -> %f", before, after)
	}
}

func TestStoreRecorder_ObserveQuery(t *testing.T) {
	r := NewStoreRecorder()
	r.ObserveQuery("observations.list", 5*time.Millisecond, "")
	r.ObserveQuery("observations.list", 5*time.Millisecond, "unavailable")

	if v := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("observations.list", "unavailable")); v < 1 {
		t.Errorf("expected errors_total >= 1, got %f", v)
	}
	if testutil.CollectAndCount(StoreQueryDuration) == 0 {
		t.Error("expected query duration observations")
	}
}

func TestStoreRecorder_Gauges(t *testing.T) {
	r := NewStoreRecorder()

	r.SetDegraded(true)
	if v := testutil.ToFloat64(StoreDegraded); v != 1 {
		t.Errorf("degraded = %f, want 1", v)
	}
	r.SetDegraded(false)
	if v := testutil.ToFloat64(StoreDegraded); v != 0 {
		t.Errorf("degraded = %f, want 0", v)
	}

	r.SetBreakerState(2)
	if v := testutil.ToFloat64(StoreBreakerState); v != 2 {
		t.Errorf("breaker_state = %f, want 2", v)
	}
}

func TestStoreRecorder_ConnectAttempt(t *testing.T) {
	r := NewStoreRecorder()
	r.ConnectAttempt("redis", true)
	if v := testutil.ToFloat64(StoreConnectAttemptsTotal.WithLabelValues("redis", "ok")); v < 1 {
		t.Errorf("connect_attempts_total = %f, want >= 1", v)
	}
}
