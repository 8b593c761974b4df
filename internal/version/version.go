// Package version holds build metadata injected via ldflags:
//
//	-ldflags "-X github.com/atlas4d/gateway/internal/version.Version=1.4.0"
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for startup logs.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
