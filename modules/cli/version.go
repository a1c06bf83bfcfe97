package cli

import (
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/lkarlslund/stixgraph/modules/cli.Version=..."
var (
	Program    = "stixgraph"
	Commit     = ""
	Version    = ""
	Copyright  = "(c) 2024 Lars Karlslund"
	Disclaimer = "This program comes with ABSOLUTELY NO WARRANTY"
)

func init() {
	if Commit != "" {
		return
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
				Commit = setting.Value[:8]
			}
		}
	}
}

func VersionStringShort() string {
	var parts []string
	if Version != "" {
		parts = append(parts, Version)
		if strings.Contains(Version, "-") {
			parts = append(parts, "(non-release)")
		}
	}
	if Commit != "" && !strings.Contains(Version, Commit) {
		parts = append(parts, "(commit "+Commit+")")
	}
	if len(parts) == 0 {
		return "(unknown build)"
	}
	return strings.Join(parts, " ")
}

func VersionString() string {
	return Program + " " + VersionStringShort() + ", " + Copyright + ", " + Disclaimer
}
