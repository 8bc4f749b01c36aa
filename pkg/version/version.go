package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is bumped manually for releases.
	Version = "0.1.0"

	// GitCommit and BuildTime are injected via -ldflags at build time.
	GitCommit = ""
	BuildTime = ""
)

// commitHash prefers the ldflags-injected commit and falls back to the VCS
// stamp embedded by the toolchain.
func commitHash() string {
	if GitCommit != "" {
		return GitCommit
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	var revision string
	var modified bool
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return "unknown"
	}
	if modified {
		return revision + "-dirty"
	}
	return revision
}

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("folderium v%s", Version)
}

// Verbose returns the multi-line version report for `folderium version -v`.
func Verbose() string {
	return fmt.Sprintf(`folderium version information:
  Version:    %s
  Git Commit: %s
  Built:      %s
  Go Version: %s
  Platform:   %s/%s`,
		Version, commitHash(), BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
