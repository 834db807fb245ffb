package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/patentdex/internal/version"
)

// VersionResponse is the JSON output of the version command.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if humanOutput {
			fmt.Println(version.String())
			return nil
		}
		return outputJSON(VersionResponse{Version: version.Version, Commit: version.Commit, Date: version.Date})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
