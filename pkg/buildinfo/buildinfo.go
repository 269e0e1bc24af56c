// Package buildinfo reports the version of the running binary
package buildinfo

import (
	"runtime/debug"
)

// Set with -ldflags "-X github.com/haecker-felix/hebbot/pkg/buildinfo.version=..."
var (
	version = ""
	commit  = ""
	date    = ""
)

// Info describes the running build
type Info struct {
	Version string
	Commit  string
	Date    string
	Go      string
}

// Read returns the build information. Values not set at link time come from
// the module and VCS data embedded by the Go toolchain.
func Read() Info {
	info := Info{Version: version, Commit: commit, Date: date}

	bi, ok := debug.ReadBuildInfo()
	if ok {
		info.Go = bi.GoVersion
		if info.Version == "" && bi.Main.Version != "" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}

	if info.Version == "" {
		info.Version = "(devel)"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}
	return info
}
