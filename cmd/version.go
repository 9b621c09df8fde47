package cmd

import (
	"fmt"

	"github.com/blang/semver"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion sets the version information injected at build time
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No config is needed to print the version
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "samscraper %s (built %s)\n", displayVersion(version), buildTime)
	},
}

// parseVersion parses a release version, accepting a leading "v"
func parseVersion(v string) (semver.Version, error) {
	return semver.ParseTolerant(v)
}

func displayVersion(v string) string {
	parsed, err := parseVersion(v)
	if err != nil {
		return v
	}
	return "v" + parsed.String()
}
