package build

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via -ldflags "-X medkit/internal/build.Version=...".
var (
	// Version is the medkit release version
	Version = "0.1.0-dev"

	// GitCommit is the git commit hash
	GitCommit = "unknown"

	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Short returns just the version string
func Short() string {
	return Version
}

// Info returns a formatted string with version details
func Info() string {
	return fmt.Sprintf(
		"medkit %s (commit: %s, built: %s, %s %s/%s)",
		Version,
		GitCommit,
		BuildTime,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}
