// Package version carries build metadata, set at link time with
//
//	-ldflags "-X github.com/jackzampolin/docex/version.GitRelease=v0.1.0 ..."
//
// Unset values fall back to the module build info.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	GitRelease    = ""
	GitCommit     = ""
	GitCommitDate = ""
	GoInfo        = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		if GitRelease == "" {
			GitRelease = "dev"
		}
		return
	}
	if GitRelease == "" {
		GitRelease = info.Main.Version
		if GitRelease == "" || GitRelease == "(devel)" {
			GitRelease = "dev"
		}
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if GitCommit == "" {
				GitCommit = s.Value
			}
		case "vcs.time":
			if GitCommitDate == "" {
				GitCommitDate = s.Value
			}
		}
	}
}
