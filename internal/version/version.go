// Package version provides version information for MindMend and the
// compatibility rules for persisted session records.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information that can be set at compile time via -ldflags.
var (
	// Version is the semantic version of the application.
	Version = "0.3.0"

	// GitCommit is the git commit hash when the binary was built.
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built.
	BuildDate = "unknown"
)

// StateSchemaVersion is written into every persisted session record.
const StateSchemaVersion = "1.0.0"

// stateConstraint accepts records written by any 1.x schema.
var stateConstraint = mustConstraint("^1.0.0")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(fmt.Sprintf("invalid version constraint %q: %v", c, err))
	}
	return constraint
}

// Info represents version information for display.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
	Schema    string `json:"schema"`
}

// GetInfo returns version information, failing when Version is not valid semver.
func GetInfo() (*Info, error) {
	if _, err := semver.NewVersion(Version); err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Schema:    StateSchemaVersion,
	}, nil
}

// GetFormattedVersion returns a one-line version string.
func GetFormattedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("MindMend v%s (invalid version)", Version)
	}

	parts := []string{fmt.Sprintf("MindMend v%s", info.Version)}
	if info.GitCommit != "unknown" && info.GitCommit != "" {
		shortCommit := info.GitCommit
		if len(shortCommit) > 7 {
			shortCommit = shortCommit[:7]
		}
		parts = append(parts, fmt.Sprintf("commit %s", shortCommit))
	}
	if info.BuildDate != "unknown" && info.BuildDate != "" {
		parts = append(parts, fmt.Sprintf("built %s", info.BuildDate))
	}
	return strings.Join(parts, ", ")
}

// GetDetailedVersion returns multi-line version information for debugging.
func GetDetailedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("MindMend v%s (error: %v)", Version, err)
	}
	lines := []string{
		fmt.Sprintf("MindMend v%s", info.Version),
		fmt.Sprintf("Git Commit: %s", info.GitCommit),
		fmt.Sprintf("Build Date: %s", info.BuildDate),
		fmt.Sprintf("State Schema: %s", info.Schema),
		fmt.Sprintf("Go Version: %s", info.GoVersion),
		fmt.Sprintf("Platform: %s", info.Platform),
	}
	return strings.Join(lines, "\n")
}

// StateCompatible reports whether a persisted record written with schema v can be read.
// Records from before versioning carry no version and are accepted.
func StateCompatible(v string) error {
	if v == "" {
		return nil
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid state schema version '%s': %w", v, err)
	}
	if !stateConstraint.Check(sv) {
		return fmt.Errorf("state schema version %s is not supported (want %s)", v, StateSchemaVersion)
	}
	return nil
}

// SetBuildInfo sets build information (used for testing).
func SetBuildInfo(version, gitCommit, buildDate string) {
	Version = version
	GitCommit = gitCommit
	BuildDate = buildDate
}
