// Package version provides information about the build version of the binaries.
package version

import (
	"fmt"
	"runtime"
)

// BuildInfo holds version information about the build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info returns the build information for the named binary. The version, commit
// and date variables are set at build time:
//
//	-ldflags "-X 'loopguard/internal/core/version.version=v0.1.0'
//	          -X 'loopguard/internal/core/version.commit=abcd'
//	          -X 'loopguard/internal/core/version.date=2025-09-02'"
func Info(service string) BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      runtime.Version(),
	}
}

// String renders a one-line banner for -version
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", b.Service, b.Version, b.Commit, b.Date, b.Go)
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
