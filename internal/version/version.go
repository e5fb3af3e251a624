// Package version reports the build of the slic binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via ldflags. Empty values are filled from the build info
// the Go toolchain embeds.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

var readBuildInfo = debug.ReadBuildInfo

// Info is the resolved build description.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	Modified  bool
}

// Get resolves the build description, preferring ldflags over embedded build info.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}

	if bi, ok := readBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildTime == "" {
		info.BuildTime = "unknown"
	}
	return info
}

// String returns the one-line version shown by `slic --version`.
func String() string {
	info := Get()
	commit := info.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if info.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("slic %s (commit: %s, built: %s)", info.Version, commit, info.BuildTime)
}
