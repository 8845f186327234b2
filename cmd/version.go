package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/collabgraph/collabgraph/internal/build"
)

// NewVersionCommand returns the command to get the collabgraph version.
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Return the collabgraph version",
		Long:  "Return the collabgraph version.",
		RunE:  version,
		Args:  cobra.NoArgs,
	}

	return cmd
}

// print out the built version
func version(cmd *cobra.Command, _ []string) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "collabgraph version %s date %s commit id %s\n", build.Version, build.Date, build.Commit)
	return err
}
