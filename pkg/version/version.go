// Package version carries mditgo's build identification, injected via
// ldflags at release time and defaulting to "dev" for local builds.
package version

import (
	"fmt"
	"runtime"
)

// Set via -X github.com/mditgo/mditgo/pkg/version.<name> at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is the structured form of the build identification, for JSON
// output surfaces.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Short returns just the version string.
func Short() string {
	return Version
}

// String returns a one-line human-readable version string.
func String() string {
	return fmt.Sprintf("mditgo %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, runtime.Version())
}

// GetInfo returns the structured build identification.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
