// Package misc keeps program identity information.
package misc

import (
	"runtime/debug"
)

// set with -ldflags "-X dphtml/misc.version=... -X dphtml/misc.gitHash=..."
var (
	version = "dev"
	gitHash = ""
)

const appName = "dphtml"

// GetAppName returns program name used for logs, temporary files and reports.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns revision program was built from. When not provided at
// link time it falls back to VCS information stamped by the Go toolchain.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) > 0 {
				return s.Value
			}
		}
	}
	return "unknown"
}
