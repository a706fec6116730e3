package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	toml "github.com/pelletier/go-toml/v2"
)

// Build metadata, set with -ldflags "-X github.com/bobmcallan/folio/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the build metadata of the running binary
type VersionInfo struct {
	Version   string `json:"version" toml:"version"`
	Build     string `json:"build" toml:"build"`
	GitCommit string `json:"git_commit" toml:"commit"`
}

// GetVersionInfo returns the current build metadata
func GetVersionInfo() VersionInfo {
	return VersionInfo{Version: Version, Build: Build, GitCommit: GitCommit}
}

// GetFullVersion formats the metadata on one line
func GetFullVersion() string {
	v := GetVersionInfo()
	return fmt.Sprintf("%s (build: %s, commit: %s)", v.Version, v.Build, v.GitCommit)
}

// LoadVersionFromFile fills unset metadata from a TOML .version file next to
// the binary, then from the VCS stamp the Go toolchain embeds. Values passed
// with ldflags always win.
func LoadVersionFromFile() {
	if exe, err := os.Executable(); err == nil {
		if data, err := os.ReadFile(filepath.Join(filepath.Dir(exe), ".version")); err == nil {
			var v VersionInfo
			if toml.Unmarshal(data, &v) == nil {
				fillUnset(&Version, "dev", v.Version)
				fillUnset(&Build, "unknown", v.Build)
				fillUnset(&GitCommit, "unknown", v.GitCommit)
			}
		}
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 8 {
				s.Value = s.Value[:8]
			}
			fillUnset(&GitCommit, "unknown", s.Value)
		case "vcs.time":
			fillUnset(&Build, "unknown", s.Value)
		}
	}
}

func fillUnset(dst *string, unset, v string) {
	if *dst == unset && v != "" {
		*dst = v
	}
}
