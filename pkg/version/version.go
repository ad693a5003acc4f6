// Package version reports the build identity embedded in the binary:
// VCS commit, commit time, Go toolchain, and whether the working tree was
// dirty at build time.
//
// Resolution order for the commit: -ldflags override, then VCS stamping
// from debug.ReadBuildInfo, then "dev" (tests and non-git builds).
package version

import "runtime/debug"

// AppName is the application name used in version strings and user agents.
const AppName = "graphion"

// commitOverride is set via -ldflags for builds where VCS stamping is
// unavailable, e.g. container builds from a source tarball.
var commitOverride string

// Info is the build identity resolved once at process start.
type Info struct {
	App       string `json:"app"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

var current = resolve()

// Get returns the resolved build identity.
func Get() Info { return current }

// Full returns "graphion/<commit>", with a "-dirty" suffix when the build
// carried uncommitted changes. Used in logs and the health body.
func Full() string {
	s := AppName + "/" + current.Commit
	if current.Dirty {
		s += "-dirty"
	}
	return s
}

func resolve() Info {
	info := Info{App: AppName, Commit: "dev"}
	if commitOverride != "" {
		info.Commit = shortCommit(commitOverride)
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "dev" && s.Value != "" {
				info.Commit = shortCommit(s.Value)
			}
		case "vcs.time":
			info.BuildTime = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
