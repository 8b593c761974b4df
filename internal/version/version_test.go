package version

import "testing"

func TestString(t *testing.T) {
	Version, Commit, Date = "1.4.0", "abc123", "2025-03-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "unknown", "unknown" })

	if got, want := String(), "1.4.0 (commit abc123, built 2025-03-01)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
