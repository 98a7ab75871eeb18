package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time with -ldflags "-X github.com/kbukum/authkit/version.Version=1.2.0".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	IsDirty   bool   `json:"is_dirty"`
}

// Get returns the build information, filling commit and time from the
// embedded VCS stamp when ldflags did not set them.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.IsDirty = s.Value == "true"
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// String renders "1.2.0-abc1234" or "1.2.0-abc1234-dirty".
func (i Info) String() string {
	s := i.Version
	if i.GitCommit != "" {
		s += "-" + i.GitCommit
	}
	if i.IsDirty {
		s += "-dirty"
	}
	return s
}

// Short is Get().String().
func Short() string { return fmt.Sprint(Get()) }
