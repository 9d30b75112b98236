package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current release.
const Version = "0.4.0"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Get reads the VCS stamp embedded by the go tool, when present.
func Get() Info {
	info := Info{Version: Version, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// BuildVersion returns the version line printed by the CLI.
func BuildVersion() string {
	i := Get()
	line := fmt.Sprintf("leaderboard version %s (%s)", i.Version, i.GoVersion)
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if i.Modified {
			rev += "-dirty"
		}
		line += " " + rev
	}
	return line
}

// APIVersion returns the bare version for API responses.
func APIVersion() string {
	return Version
}
