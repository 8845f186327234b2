// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with COLLABGRAPH, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("COLLABGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/collabgraph", "$HOME/.collabgraph", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	root := &cobra.Command{
		Use:   "collabgraph",
		Short: "Build co-authorship graphs and corpus statistics from an OpenAlex snapshot",
		Long: `Build co-authorship graphs and corpus statistics from an OpenAlex snapshot.

Every command splits its input deterministically across a fixed pool of workers, transforms each
part independently and merges the partial results into a single deterministic output. The steps
are usually run in order: authors, papers, graph and stats.`,
		SilenceUsage: true,
	}
	bindRootFlags(root)

	return root
}
