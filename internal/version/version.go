package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the released version.
// Override at build time:
//
//	go build -ldflags "-X github.com/himanshuarya/portfolio-rag/internal/version.Version=v1.2.0"
var Version = "0.0.0-dev"

// GitCommit is the commit the binary was built from, shown in the startup banner.
// Override at build time:
//
//	go build -ldflags "-X github.com/himanshuarya/portfolio-rag/internal/version.GitCommit=$(git rev-parse --short HEAD)"
var GitCommit = "unknown"

// GetCurrentVersion returns the version string shown for the given mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" {
		return Version + "+dev"
	}
	return Version
}

// IsRelease reports whether v is a semantic version without a prerelease suffix.
func IsRelease(v string) bool {
	v = canonical(v)
	return semver.IsValid(v) && semver.Prerelease(v) == "" && semver.Build(v) == ""
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
