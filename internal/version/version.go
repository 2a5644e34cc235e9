// Package version holds build metadata, set with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/usemin/internal/version.Version=v1.0.0"
package version

import "runtime/debug"

var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed by --version. Without ldflags the
// module version recorded by the go tool is used when available.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return "usemin " + v + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
