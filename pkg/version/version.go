// Package version carries build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the phpast release. Overridden with -ldflags "-X".
var Version = "dev"

// BinaryGitHash is the Git hash of the phpast binary which is executing.
var BinaryGitHash = "<unknown>"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"   yaml:"version"`
	GitHash   string `json:"git_hash"  yaml:"git_hash"`
	GoVersion string `json:"go"        yaml:"go"`
	Platform  string `json:"platform"  yaml:"platform"`
}

// Current returns the build information of the running binary. A binary
// built without ldflags falls back to the VCS revision stamped by the Go
// toolchain.
func Current() Info {
	hash := BinaryGitHash

	if hash == "<unknown>" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" {
					hash = s.Value
				}
			}
		}
	}

	return Info{
		Version:   Version,
		GitHash:   hash,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("phpast %s (%s) %s %s", i.Version, i.GitHash, i.GoVersion, i.Platform)
}
