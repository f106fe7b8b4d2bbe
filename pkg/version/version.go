// Package version contains version information for fimcache.
package version

import "runtime"

var (
	// Version is the current version of fimcache.
	Version = "dev"
	// BuildTime is the time when the binary was built.
	BuildTime = "unknown"
	// GitCommit is the git commit hash of the build.
	GitCommit = "unknown"
)

// UserAgent is sent with every outgoing HTTP request
func UserAgent() string {
	return "fimcache/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}

// String describes the build for --version output
func String() string {
	return Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
