// Package buildinfo reports the version stamped into a binary at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/medialog/internal/buildinfo.buildVersion=v1.0.0"
package buildinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const notAvailable = "N/A"

// readBuildInfo is a seam for tests.
var readBuildInfo = debug.ReadBuildInfo

// Commit returns the linked commit, falling back to the VCS revision the
// toolchain embeds.
func Commit() string {
	if buildCommit != "" {
		return buildCommit
	}
	if info, ok := readBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return notAvailable
}

func Version() string {
	return orNA(buildVersion)
}

func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version())
	fmt.Fprintf(w, "Build date: %s\n", orNA(buildDate))
	fmt.Fprintf(w, "Build commit: %s\n", Commit())
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
