// Package version holds build metadata injected with -ldflags at release time.
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // -X .../version.Version=v0.3.0
	Commit    = "none"                          // -X .../version.Commit=abcd123
	BuildDate = time.Now().Format(time.RFC3339) // overwritten by release builds
	GoVersion = runtime.Version()
)

// String renders the build metadata on one line for startup logs.
func String() string {
	return Version + " (commit=" + Commit + ", built=" + BuildDate + ", go=" + GoVersion + ")"
}
